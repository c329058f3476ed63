package api

// MessageType тип сообщения live-канала
type MessageType string

const (
	// MessageDocUpdate набор документов для немедленного применения (в обе стороны)
	MessageDocUpdate MessageType = "docUpdate"
	// MessageReady клиент завершил полную синхронизацию и готов к потоку обновлений
	MessageReady MessageType = "ready"
	// MessageAck сервер подтверждает применение docUpdate клиента
	MessageAck MessageType = "ack"
)

// Message конверт live-канала
type Message struct {
	Type MessageType `json:"type"`
	Docs []Document  `json:"docs,omitempty"`
	// Acked заполняется только в MessageAck
	Acked []Stub `json:"acked,omitempty"`
}
