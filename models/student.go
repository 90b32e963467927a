package models

import "time"

type Student struct {
	ID                 uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Nom                string    `gorm:"column:nom;size:255;not null" json:"nom"`
	Prenom             string    `gorm:"column:prenom;size:255;not null" json:"prenom"`
	Sexe               *string   `gorm:"column:sexe;size:1" json:"sexe"` // M | F
	Matricule          string    `gorm:"column:matricule;size:255;not null" json:"matricule"`
	CIN                string    `gorm:"column:cin;size:255" json:"cin"`
	DateNaissance      string    `gorm:"column:date_naissance;size:10" json:"date_naissance"` // YYYY-MM-DD
	Nationalite        string    `gorm:"column:nationalite;size:255" json:"nationalite"`
	Telephone          string    `gorm:"column:telephone;size:255" json:"telephone"`
	Email              string    `gorm:"column:email;size:255" json:"email"`
	AnneeUniversitaire string    `gorm:"column:annee_universitaire;size:255" json:"annee_universitaire"`
	FiliereID          *uint     `gorm:"column:filiere_id" json:"filiere_id"`
	DossierMedicale    string    `gorm:"column:dossier_medicale;type:text" json:"dossier_medicale"`
	Observation        *string   `gorm:"column:observation;type:text" json:"observation"`
	Photo              *string   `gorm:"column:photo;size:255" json:"photo"`
	Laureat            *string   `gorm:"column:laureat;size:255" json:"laureat"`
	NumChambre         *string   `gorm:"column:num_chambre;size:32" json:"num_chambre"` // string join key against rooms.room_number, nil = unassigned
	Mobilite           *string   `gorm:"column:mobilite;size:255" json:"mobilite"`
	VieAssociative     *string   `gorm:"column:vie_associative;size:255" json:"vie_associative"`
	Bourse             string    `gorm:"column:bourse;size:255;default:'non'" json:"bourse"`
	TypeSection        string    `gorm:"column:type_section;size:32;default:'Interne'" json:"type_section"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Filiere *Filiere `gorm:"foreignKey:FiliereID" json:"filiere,omitempty"`
}

func (Student) TableName() string {
	return "students"
}
