// Package messages holds the static user-facing texts and button definitions.
package messages

import "github.com/KirillMachuk/tg-transformator-bot/internal/models"

// Button pairs a callback key with its display label.
type Button struct {
	Key  string
	Text string
}

// Command buttons.
var (
	StartButton           = Button{Key: "start_intro", Text: "🚀 Поехали"}
	VideoReadyButton      = Button{Key: "video_ready", Text: "✅ Посмотрел(а), погнали дальше"}
	DiagnosisButton       = Button{Key: "start_diagnosis", Text: "🔍 Начать диагностику"}
	ReportButton          = Button{Key: "generate_report", Text: "📄 Получить отчёт"}
	MultiSelectDoneButton = Button{Key: "done", Text: "✅ Готово"}
)

// SkillLevelOptions lists the skill tiers in display order. The first two
// tiers gate the intro video.
var SkillLevelOptions = []Button{
	{Key: models.SkillLevelBeginner, Text: "🌱 Только начинаю разбираться"},
	{Key: models.SkillLevelBasic, Text: "📘 Пробовал(а) ChatGPT пару раз"},
	{Key: models.SkillLevelConfident, Text: "⚙️ Регулярно использую ИИ в работе"},
	{Key: models.SkillLevelExpert, Text: "🚀 Уже внедряю ИИ в процессы"},
}

const (
	WelcomeText = "👋 Привет! Я — бот-трансформатор агентства 1ma.ai.\n\n" +
		"За несколько минут я проведу диагностику твоего бизнеса, разберу процессы " +
		"и подготовлю персональный отчёт: где и как ИИ сэкономит тебе время и деньги.\n\n" +
		"Готов(а) начать?"

	SkillLevelPrompt = "Для начала — как бы ты оценил(а) свой уровень работы с ИИ?"

	VideoMessage = "🎬 Отлично! Перед диагностикой посмотри короткое видео — " +
		"за 3 минуты станет понятно, что такое ИИ-трансформация и чего ждать от отчёта.\n\n" +
		"https://youtu.be/1ma-ai-intro\n\n" +
		"Как посмотришь — жми кнопку."

	ExpertSkipMessage = "💪 Отлично, вводная часть тебе не нужна — переходим сразу к делу.\n\n" +
		"Дальше будет несколько вопросов о твоём бизнесе. Чем точнее ответы, тем полезнее отчёт."

	DiagnosisIntro = "🔍 *Диагностика началась.*\n\n" +
		"Отвечай на вопросы — по кнопкам или текстом. " +
		"В конце соберу всё в отчёт с конкретным планом внедрения ИИ."

	CustomOptionPrompt = "✍️ Напиши свой вариант ответа одним сообщением."

	PreReportMessage = "🎉 Диагностика завершена!\n\n" +
		"Все ответы собраны. Жми кнопку — подготовлю персональный отчёт " +
		"с планом ИИ-трансформации твоего бизнеса."

	ReportDeliveryMessage = "📄 Готово! Вот твой персональный отчёт.\n\n" +
		"Теперь можешь задавать любые вопросы по отчёту — я на связи."

	ReportRenderFailedMessage = "😔 Не получилось собрать PDF-файл отчёта. " +
		"Но все выводы сохранены — задавай вопросы прямо здесь, отвечу по существу."

	PostReportMessage = "💬 Кстати, если хочешь разобрать отчёт вживую — " +
		"запишись на бесплатную консультацию с экспертом 1ma.ai."

	ConsultationButtonText = "📅 Записаться на консультацию"

	PreChatReminder = "⏳ Сначала давай закончим диагностику — продолжи отвечать на вопросы выше. " +
		"Если что-то сломалось, отправь /start, чтобы начать заново."

	ChatFallbackMessage = "🤖 Я отвечаю только на текстовые вопросы по твоему отчёту. " +
		"Сформулируй вопрос текстом — и я помогу."

	UnknownActionMessage = "🤔 Не узнаю эту кнопку. Продолжи с текущего вопроса или отправь /start."

	SelectedBlockHeader = "*Выбрано:*"
)
