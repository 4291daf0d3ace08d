// Package questions defines the static diagnostic catalog.
//
// The catalog is read-only after process start: order defines the traversal
// sequence, sections tag which conversation phase a question belongs to.
package questions

import "github.com/KirillMachuk/tg-transformator-bot/internal/models"

// Section tags. Business questions drive the DIAGNOSIS phase, readiness
// questions the READINESS phase.
const (
	SectionBusiness  = "business"
	SectionReadiness = "readiness"
)

var catalog = []models.Question{
	{
		ID:      "business_sphere",
		Text:    "1️⃣ *В какой сфере работает твой бизнес?*",
		Section: SectionBusiness,
		Options: []models.Option{
			{Key: "services", Text: "🛠 Услуги"},
			{Key: "retail", Text: "🛍 Торговля / e-commerce"},
			{Key: "production", Text: "🏭 Производство"},
			{Key: "education", Text: "🎓 Образование"},
			{Key: "it", Text: "💻 IT / Digital"},
			{Key: "other", Text: "✍️ Другое", RequiresFreeText: true},
		},
	},
	{
		ID:      "team_size",
		Text:    "2️⃣ *Сколько человек в команде?*",
		Section: SectionBusiness,
		Options: []models.Option{
			{Key: "solo", Text: "👤 Я один / одна"},
			{Key: "small", Text: "👥 2–10"},
			{Key: "medium", Text: "👨‍👩‍👧 11–50"},
			{Key: "large", Text: "🏢 Больше 50"},
		},
	},
	{
		ID:          "routine_processes",
		Text:        "3️⃣ *Какие процессы съедают больше всего времени?*\n\n_Можно выбрать несколько._",
		Section:     SectionBusiness,
		MultiSelect: true,
		Options: []models.Option{
			{Key: "sales", Text: "📞 Продажи и переписка с клиентами"},
			{Key: "content", Text: "📝 Контент и маркетинг"},
			{Key: "docs", Text: "📑 Документы и отчётность"},
			{Key: "support", Text: "💬 Поддержка клиентов"},
			{Key: "hiring", Text: "🧑‍💼 Найм и обучение"},
			{Key: "other", Text: "✍️ Другое", RequiresFreeText: true},
		},
	},
	{
		ID:      "main_goal",
		Text:    "4️⃣ *Какая цель для тебя сейчас главная?*",
		Section: SectionBusiness,
		Options: []models.Option{
			{Key: "cut_costs", Text: "💸 Снизить расходы"},
			{Key: "grow_sales", Text: "📈 Увеличить продажи"},
			{Key: "free_time", Text: "⏰ Освободить своё время"},
			{Key: "scale", Text: "🚀 Масштабировать бизнес"},
		},
	},
	{
		ID:          "biggest_pain",
		Text:        "5️⃣ *Опиши своими словами главную боль в бизнесе прямо сейчас.*",
		Section:     SectionBusiness,
		ExpectsText: true,
	},
	{
		ID:          "ai_tools_tried",
		Text:        "6️⃣ *Какие ИИ-инструменты уже пробовал(а)?*\n\n_Можно выбрать несколько._",
		Section:     SectionReadiness,
		MultiSelect: true,
		Options: []models.Option{
			{Key: "chatgpt", Text: "💬 ChatGPT / Claude"},
			{Key: "images", Text: "🎨 Midjourney / генерация картинок"},
			{Key: "automation", Text: "🔄 Автоматизации (Zapier, Make)"},
			{Key: "none", Text: "🙅 Пока ничего"},
			{Key: "other", Text: "✍️ Другое", RequiresFreeText: true},
		},
	},
	{
		ID:      "data_readiness",
		Text:    "7️⃣ *Где живут данные твоего бизнеса?*",
		Section: SectionReadiness,
		Options: []models.Option{
			{Key: "crm", Text: "📊 CRM и системы учёта"},
			{Key: "sheets", Text: "📋 Таблицы и документы"},
			{Key: "chats", Text: "💬 В переписках и головах"},
			{Key: "nowhere", Text: "🤷 Почти нигде не фиксируются"},
		},
	},
	{
		ID:      "budget",
		Text:    "8️⃣ *Какой бюджет готов(а) выделить на внедрение ИИ в месяц?*",
		Section: SectionReadiness,
		Options: []models.Option{
			{Key: "minimal", Text: "🪙 До 10 000 ₽"},
			{Key: "medium", Text: "💰 10–50 тыс. ₽"},
			{Key: "serious", Text: "💎 50–200 тыс. ₽"},
			{Key: "flexible", Text: "🏦 Зависит от эффекта"},
		},
	},
	{
		ID:      "timeline",
		Text:    "9️⃣ *Когда хочешь увидеть первые результаты?*",
		Section: SectionReadiness,
		Options: []models.Option{
			{Key: "asap", Text: "⚡ Уже вчера"},
			{Key: "month", Text: "📅 В ближайший месяц"},
			{Key: "quarter", Text: "🗓 В течение квартала"},
			{Key: "exploring", Text: "🔭 Пока просто изучаю"},
		},
	},
	{
		ID:          "expectations",
		Text:        "🔟 *Что будет для тебя идеальным результатом внедрения ИИ?*",
		Section:     SectionReadiness,
		ExpectsText: true,
	},
}

// All returns the full catalog in traversal order. Callers must not mutate
// the returned slice.
func All() []models.Question {
	return catalog
}

// At returns the question at the given cursor position, or false when the
// cursor has run past the end of the catalog.
func At(index int) (models.Question, bool) {
	if index < 0 || index >= len(catalog) {
		return models.Question{}, false
	}
	return catalog[index], true
}

// ByID returns the question with the given id.
func ByID(id string) (models.Question, bool) {
	for _, q := range catalog {
		if q.ID == id {
			return q, true
		}
	}
	return models.Question{}, false
}

// FindOption returns the option with the given key within a question.
func FindOption(q models.Question, key string) (models.Option, bool) {
	for _, opt := range q.Options {
		if opt.Key == key {
			return opt, true
		}
	}
	return models.Option{}, false
}
