package models

// User — учетная запись сотрудника. ID приходит из внешней кадровой
// системы (например "EMP-0001") и никогда не меняется.
type User struct {
	ID         string `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"not null" json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
	// Password хранится открытым текстом — допустимо только в доверенной
	// локальной сети. Наружу не отдается.
	Password string `json:"-"`
}
