package model

type Clinician struct {
	Base
	Email     string `db:"email" json:"email"`
	Name      string `db:"name" json:"name"`
	Specialty string `db:"specialty" json:"specialty,omitempty"`
	Status    string `db:"status" json:"status"`
}

type Patient struct {
	Base
	Email string `db:"email" json:"email"`
	Name  string `db:"name" json:"name"`
	Phone string `db:"phone" json:"phone,omitempty"`
}
