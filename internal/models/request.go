package models

import "time"

// Callback получает аргументы вызывающего и разобранный документ.
type Callback func(args any, doc *Document)

// Request описывает один запрос ленты. Создаётся на каждый вызов.
type Request struct {
	Feed     string
	URL      string
	Callback Callback
	Args     any
}

// Result — итог запроса: либо документ, либо причина ошибки.
type Result struct {
	Doc *Document
	Err error
}

// OK сообщает, получен ли документ.
func (r Result) OK() bool {
	return r.Err == nil && r.Doc != nil
}

// Message возвращает текст ошибки для пользователя или пустую строку при успехе.
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// FetchRecord — запись о выполненной загрузке для архива.
type FetchRecord struct {
	Feed       string
	URL        string
	StatusCode int
	OK         bool
	Message    string
	Body       []byte
	FetchedAt  time.Time
}
