package ws

// Типы входящих сообщений (клиент -> сервер).
const (
	// begin — привязка соединения к проверенному пользователю и его комнатам
	TypeBegin = "begin"
)

// Исходящие типы совпадают с именами событий broadcast.Event*.

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type BeginPayload struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}
