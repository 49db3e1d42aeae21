// Package session хранит одноразовые сообщения между запросами:
// завершение и правки корзины кладут сюда результат, следующий показ
// корзины забирает его и стирает.
package session

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

type Message struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}
