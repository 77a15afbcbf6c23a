package telegram

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "defect-inspector/internal/application"
	"defect-inspector/internal/domain"
	"defect-inspector/internal/domain/entity"
	"defect-inspector/internal/domain/port"
)

const (
	msgStart = `👋 Привет! Я бот для поиска дефектов на фотографиях деталей.

Сначала покажите мне примеры годных деталей и деталей с дефектами, затем обучите модель и отправляйте фото на проверку.

📋 Команды:
/good — добавить фото годных деталей
/bad — добавить фото деталей с дефектами
/train — обучить модель
/check — проверить деталь
/counts — сколько образцов собрано
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ /good и /bad — отправьте несколько фото каждого класса
2️⃣ /train — обучите модель
3️⃣ /check — отправьте фото детали и получите результат с подсветкой области

✂️ Чтобы проверять не всё фото, а его часть, укажите в подписи к фото область: x y ширина высота

💡 Рекомендации:
• Снимайте при хорошем освещении
• Используйте однотонный фон
• Фото должно быть чётким`

	msgAwaitingGood    = "📸 Отправляйте фото годных деталей. /cancel — закончить."
	msgAwaitingBad     = "📸 Отправляйте фото деталей с дефектами. /cancel — закончить."
	msgAwaitingCheck   = "📸 Отправьте фото детали для проверки на дефекты."
	msgCancelled       = "❌ Операция отменена."
	msgSendPhoto       = "📸 Сначала выберите действие: /good, /bad или /check."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Обрабатываю изображение..."
	msgTraining        = "⏳ Обучаю модель..."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте сделать другое фото."
	msgBadCaption      = "⚠️ Подпись не похожа на область. Ожидается: x y ширина высота."
)

// Detector операции детектора, нужные боту.
type Detector interface {
	AddSample(ctx context.Context, img image.Image, label entity.Label, roi entity.ROI) (int, error)
	Train(ctx context.Context) (*entity.TrainedModel, float64, error)
	Predict(ctx context.Context, img image.Image, roi entity.ROI) (entity.Prediction, error)
	Counts(ctx context.Context) (entity.Counts, error)
}

// Sender отправляет сообщения в Telegram.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Annotator рисует результат проверки на изображении.
type Annotator func(img image.Image, p entity.Prediction) ([]byte, error)

// Bot представляет Telegram-бота
type Bot struct {
	api      *tgbotapi.BotAPI
	sender   Sender
	users    *app.UserService
	detector Detector
	images   port.ImageLoader
	annotate Annotator
	download func(ctx context.Context, fileID string) ([]byte, error)
	log      *slog.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, users *app.UserService, detector Detector, images port.ImageLoader, annotate Annotator, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Info("authorized on telegram", "account", api.Self.UserName)

	b := newBot(api, users, detector, images, annotate, log)
	b.api = api
	b.download = b.downloadFile
	return b, nil
}

func newBot(sender Sender, users *app.UserService, detector Detector, images port.ImageLoader, annotate Annotator, log *slog.Logger) *Bot {
	return &Bot{
		sender:   sender,
		users:    users,
		detector: detector,
		images:   images,
		annotate: annotate,
		log:      log,
	}
}

// Run запускает основной цикл обработки сообщений до отмены ctx.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.log.Error("failed to get user", "user_id", msg.From.ID, "error", err)
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg, user)
		return
	}

	// Текстовое сообщение (не команда)
	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.apply(user)(b.users.Cancel(ctx, user.ID, user.ChatID))
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "good":
		b.apply(user)(b.users.BeginCollect(ctx, user.ID, user.ChatID, entity.LabelGood))
		b.sendMessage(chatID, msgAwaitingGood)

	case "bad":
		b.apply(user)(b.users.BeginCollect(ctx, user.ID, user.ChatID, entity.LabelBad))
		b.sendMessage(chatID, msgAwaitingBad)

	case "check":
		b.apply(user)(b.users.BeginCheck(ctx, user.ID, user.ChatID))
		b.sendMessage(chatID, msgAwaitingCheck)

	case "train":
		b.apply(user)(b.users.Cancel(ctx, user.ID, user.ChatID))
		b.sendMessage(chatID, msgTraining)
		model, accuracy, err := b.detector.Train(ctx)
		if err != nil {
			b.sendMessage(chatID, errorText(err))
			return
		}
		b.sendMessage(chatID, formatTrained(model, accuracy))

	case "counts":
		counts, err := b.detector.Counts(ctx)
		if err != nil {
			b.sendMessage(chatID, errorText(err))
			return
		}
		b.sendMessage(chatID, formatCounts(counts))

	case "cancel":
		b.apply(user)(b.users.Cancel(ctx, user.ID, user.ChatID))
		b.sendMessage(chatID, msgCancelled)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// handlePhoto обрабатывает входящее фото
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	chatID := msg.Chat.ID
	label, collecting := user.AwaitingLabel()
	if !collecting && user.State != entity.StateAwaitingCheck {
		b.sendMessage(chatID, msgSendPhoto)
		return
	}

	var roi *entity.ROI
	if caption := strings.TrimSpace(msg.Caption); caption != "" {
		r, err := entity.ParseROI(caption)
		if err != nil {
			b.sendMessage(chatID, msgBadCaption)
			return
		}
		roi = &r
	}

	if !collecting {
		// Устанавливаем состояние "обработка"
		b.apply(user)(b.users.SetState(ctx, user.ID, user.ChatID, entity.StateProcessing))
		defer func() { b.apply(user)(b.users.Cancel(ctx, user.ID, user.ChatID)) }()
		b.sendMessage(chatID, msgProcessing)
	}

	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	data, err := b.download(ctx, photo.FileID)
	if err != nil {
		b.log.Error("failed to download photo", "file_id", photo.FileID, "error", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}
	img, err := b.images.Decode(data)
	if err != nil {
		b.log.Warn("failed to decode photo", "file_id", photo.FileID, "error", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}
	region := entity.FullFrame(img.Bounds())
	if roi != nil {
		region = *roi
	}

	if collecting {
		n, err := b.detector.AddSample(ctx, img, label, region)
		if err != nil {
			b.sendMessage(chatID, errorText(err))
			return
		}
		b.sendMessage(chatID, formatAdded(label, n))
		return
	}

	p, err := b.detector.Predict(ctx, img, region)
	if err != nil {
		b.sendMessage(chatID, errorText(err))
		return
	}
	b.sendResult(chatID, img, p)
}

// sendResult отправляет вердикт и фото с подсвеченной областью.
func (b *Bot) sendResult(chatID int64, img image.Image, p entity.Prediction) {
	text := formatPrediction(p)
	if b.annotate == nil {
		b.sendMessage(chatID, text)
		return
	}
	data, err := b.annotate(img, p)
	if err != nil {
		b.log.Warn("failed to annotate photo", "error", err)
		b.sendMessage(chatID, text)
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "result.jpg", Bytes: data})
	photo.Caption = text
	if _, err := b.sender.Send(photo); err != nil {
		b.log.Error("failed to send photo", "chat_id", chatID, "error", err)
	}
}

// apply переносит в user состояние, сохранённое сервисом пользователей.
func (b *Bot) apply(user *entity.User) func(*entity.User, error) {
	return func(next *entity.User, err error) {
		if err != nil {
			b.log.Error("failed to save user state", "user_id", user.ID, "error", err)
			return
		}
		user.SetState(next.State)
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	fileURL := file.Link(b.api.Token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.sender.Send(msg); err != nil {
		b.log.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

func formatAdded(label entity.Label, n int) string {
	if label == entity.LabelGood {
		return fmt.Sprintf("✅ Добавлен образец годной детали. Всего годных: %d", n)
	}
	return fmt.Sprintf("✅ Добавлен образец с дефектом. Всего с дефектом: %d", n)
}

func formatCounts(c entity.Counts) string {
	return fmt.Sprintf("📊 Образцов собрано: годных %d, с дефектом %d", c.Good, c.Bad)
}

func formatTrained(m *entity.TrainedModel, accuracy float64) string {
	return fmt.Sprintf("🎓 Модель обучена на %d образцах. Точность на обучающей выборке: %.1f%%",
		m.Counts.Good+m.Counts.Bad, accuracy*100)
}

func formatPrediction(p entity.Prediction) string {
	if p.Label == entity.LabelGood {
		return fmt.Sprintf("✅ Дефекты не обнаружены (уверенность %.0f%%)", p.Confidence*100)
	}
	return fmt.Sprintf("🔴 Обнаружен дефект (уверенность %.0f%%)", p.Confidence*100)
}

// errorText переводит ошибку детектора в ответ пользователю.
func errorText(err error) string {
	var insufficient *domain.InsufficientDataError
	switch {
	case errors.As(err, &insufficient):
		return "⚠️ Недостаточно образцов: нужны фото и годных деталей, и деталей с дефектами."
	case errors.Is(err, domain.ErrModelNotTrained):
		return "⚠️ Модель ещё не обучена. Соберите образцы и отправьте /train."
	case errors.Is(err, domain.ErrOutOfBounds):
		return "⚠️ Область выходит за границы фото."
	case errors.Is(err, domain.ErrIncompatibleFeatures):
		return "⚠️ Сохранённые данные собраны другим экстрактором признаков."
	default:
		return msgProcessingError
	}
}
