package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu      UserState = "main_menu"      // В главном меню
	StateAwaitingGood  UserState = "awaiting_good"  // Ожидание фото годной детали
	StateAwaitingBad   UserState = "awaiting_bad"   // Ожидание фото детали с дефектом
	StateAwaitingCheck UserState = "awaiting_check" // Ожидание фото для проверки
	StateProcessing    UserState = "processing"     // Обработка изображения
)

// User представляет пользователя бота
type User struct {
	ID     int64     // Telegram User ID
	ChatID int64     // Telegram Chat ID
	State  UserState // Текущее состояние пользователя
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// AwaitingLabel возвращает метку, которую ждёт пользователь, если он
// находится в режиме сбора образцов.
func (u *User) AwaitingLabel() (Label, bool) {
	switch u.State {
	case StateAwaitingGood:
		return LabelGood, true
	case StateAwaitingBad:
		return LabelBad, true
	default:
		return "", false
	}
}
