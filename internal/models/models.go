package models

import "time"

type Account struct {
	ID       string
	Email    string
	PassHash []byte
	Tokens   []Token
}

type Token struct {
	Access string `json:"access"`
	Token  string `json:"token"`
}

// PublicAccount is the only account shape ever sent to clients.
type PublicAccount struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
}

func (a Account) Public() PublicAccount {
	return PublicAccount{
		ID:    a.ID,
		Email: a.Email,
	}
}

// * HasToken проверяет наличие точной пары access/token в списке аккаунта
func (a Account) HasToken(access, token string) bool {
	for _, t := range a.Tokens {
		if t.Access == access && t.Token == token {
			return true
		}
	}

	return false
}

type Todo struct {
	ID          string     `json:"_id"`
	Text        string     `json:"text"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt"`
	OwnerID     string     `json:"_creator"`
}

// TodoPatch carries the fields a client may change on a todo.
type TodoPatch struct {
	Text      *string
	Completed bool
	// CompletedAt is applied as-is; nil clears it.
	CompletedAt *time.Time
}

type Message struct {
	Email   string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Purpose string `json:"purpose"`
}
