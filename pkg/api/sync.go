package api

import "encoding/json"

// Stub описывает документ без тела: только id, ревизию и флаг удаления.
type Stub struct {
	ID      string `json:"_id"`
	Rev     string `json:"_rev"`
	Deleted bool   `json:"_deleted,omitempty"`
}

// Document полный документ, передаваемый по сети.
// Body непрозрачен для синхронизации; у tombstone тело отсутствует.
type Document struct {
	ID      string          `json:"_id"`
	Rev     string          `json:"_rev"`
	Body    json.RawMessage `json:"body,omitempty"`
	Deleted bool            `json:"_deleted,omitempty"`
}

// BeginRequest тело POST /sync/begin: полный инвентарь клиента
type BeginRequest struct {
	Docs []Stub `json:"docs"`
}

// BeginResponse план синхронизации с точки зрения сервера.
// Server - что сервер ждет от клиента, Client - что клиент должен забрать.
type BeginResponse struct {
	Server []Stub `json:"server"`
	Client []Stub `json:"client"`
}

// DocsRequest тело POST /sync/request
type DocsRequest struct {
	Docs []Stub `json:"docs"`
}

// UpdateRequest тело POST /sync/update
type UpdateRequest struct {
	Docs []Document `json:"docs"`
}
