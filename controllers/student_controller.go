package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dorm-ms/dorm-server/config"
	"github.com/dorm-ms/dorm-server/models"
	"github.com/dorm-ms/dorm-server/services"
	"github.com/dorm-ms/dorm-server/utils"
)

func assignmentService() *services.AssignmentService {
	return services.NewAssignmentService(config.DB)
}

// respondAssignmentError names the exact rejection reason so the UI can
// tell an administrator why a room cannot be used.
func respondAssignmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrRoomNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Selected room does not exist"})
	case errors.Is(err, services.ErrRoomFull):
		c.JSON(http.StatusConflict, gin.H{"message": "Selected room is already full"})
	case errors.Is(err, services.ErrRoomBecameFull):
		c.JSON(http.StatusConflict, gin.H{"message": "Someone else just took the last spot in this room"})
	case errors.Is(err, services.ErrStudentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Student not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not save student"})
	}
}

// GET /api/students
func ListStudents(c *gin.Context) {
	var students []models.Student
	query := config.DB.Model(&models.Student{}).Preload("Filiere")

	if keyword := c.Query("search"); keyword != "" {
		pattern := "%" + strings.ToLower(keyword) + "%"
		query = query.Where(
			"LOWER(nom) LIKE ? OR LOWER(prenom) LIKE ? OR LOWER(matricule) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if chambre := c.Query("chambre"); chambre != "" {
		query = query.Where("num_chambre = ?", chambre)
	}
	if filiereID := c.Query("filiere_id"); filiereID != "" {
		query = query.Where("filiere_id = ?", filiereID)
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	var total int64
	query.Count(&total)

	if err := query.Offset(offset).Limit(limit).Order("nom asc, prenom asc").Find(&students).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not list students"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  students,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GET /api/students/:id
func GetStudent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid student id"})
		return
	}

	var student models.Student
	if err := config.DB.Preload("Filiere").First(&student, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Student not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": student})
}

type StudentReq struct {
	Nom                string  `json:"nom" binding:"required"`
	Prenom             string  `json:"prenom" binding:"required"`
	Sexe               *string `json:"sexe"`
	Matricule          string  `json:"matricule" binding:"required"`
	CIN                string  `json:"cin"`
	DateNaissance      string  `json:"date_naissance"`
	Nationalite        string  `json:"nationalite"`
	Telephone          string  `json:"telephone"`
	Email              string  `json:"email"`
	AnneeUniversitaire string  `json:"annee_universitaire"`
	FiliereID          *uint   `json:"filiere_id"`
	DossierMedicale    string  `json:"dossier_medicale"`
	Observation        *string `json:"observation"`
	Laureat            *string `json:"laureat"`
	NumChambre         *string `json:"num_chambre"`
	Mobilite           *string `json:"mobilite"`
	VieAssociative     *string `json:"vie_associative"`
	Bourse             string  `json:"bourse"`
	TypeSection        string  `json:"type_section"`
}

// POST /api/students
func CreateStudent(c *gin.Context) {
	var req StudentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload", "error": err.Error()})
		return
	}

	if req.FiliereID != nil {
		var filiere models.Filiere
		if err := config.DB.First(&filiere, *req.FiliereID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Filiere does not exist"})
			return
		}
	}

	if req.DossierMedicale == "" {
		req.DossierMedicale = "non"
	}
	if req.Bourse == "" {
		req.Bourse = "non"
	}
	if req.TypeSection == "" {
		req.TypeSection = "Interne"
	}

	student := models.Student{
		Nom:                req.Nom,
		Prenom:             req.Prenom,
		Sexe:               req.Sexe,
		Matricule:          req.Matricule,
		CIN:                req.CIN,
		DateNaissance:      req.DateNaissance,
		Nationalite:        req.Nationalite,
		Telephone:          req.Telephone,
		Email:              req.Email,
		AnneeUniversitaire: req.AnneeUniversitaire,
		FiliereID:          req.FiliereID,
		DossierMedicale:    req.DossierMedicale,
		Observation:        req.Observation,
		Laureat:            req.Laureat,
		NumChambre:         req.NumChambre,
		Mobilite:           req.Mobilite,
		VieAssociative:     req.VieAssociative,
		Bourse:             req.Bourse,
		TypeSection:        req.TypeSection,
	}

	if err := assignmentService().CreateStudent(&student); err != nil {
		respondAssignmentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Student created", "data": student})
}

// PUT /api/students/:id
func UpdateStudent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid student id"})
		return
	}

	var student models.Student
	if err := config.DB.First(&student, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Student not found"})
		return
	}

	var req struct {
		Nom                *string              `json:"nom"`
		Prenom             *string              `json:"prenom"`
		Sexe               *string              `json:"sexe"`
		Matricule          *string              `json:"matricule"`
		CIN                *string              `json:"cin"`
		DateNaissance      *string              `json:"date_naissance"`
		Nationalite        *string              `json:"nationalite"`
		Telephone          *string              `json:"telephone"`
		Email              *string              `json:"email"`
		AnneeUniversitaire *string              `json:"annee_universitaire"`
		FiliereID          *uint                `json:"filiere_id"`
		DossierMedicale    *string              `json:"dossier_medicale"`
		Observation        *string              `json:"observation"`
		Laureat            *string              `json:"laureat"`
		NumChambre         utils.NullableString `json:"num_chambre"`
		Mobilite           *string              `json:"mobilite"`
		VieAssociative     *string              `json:"vie_associative"`
		Bourse             *string              `json:"bourse"`
		TypeSection        *string              `json:"type_section"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload", "error": err.Error()})
		return
	}

	if req.Nom != nil {
		student.Nom = *req.Nom
	}
	if req.Prenom != nil {
		student.Prenom = *req.Prenom
	}
	if req.Sexe != nil {
		student.Sexe = req.Sexe
	}
	if req.Matricule != nil {
		student.Matricule = *req.Matricule
	}
	if req.CIN != nil {
		student.CIN = *req.CIN
	}
	if req.DateNaissance != nil {
		student.DateNaissance = *req.DateNaissance
	}
	if req.Nationalite != nil {
		student.Nationalite = *req.Nationalite
	}
	if req.Telephone != nil {
		student.Telephone = *req.Telephone
	}
	if req.Email != nil {
		student.Email = *req.Email
	}
	if req.AnneeUniversitaire != nil {
		student.AnneeUniversitaire = *req.AnneeUniversitaire
	}
	if req.FiliereID != nil {
		var filiere models.Filiere
		if err := config.DB.First(&filiere, *req.FiliereID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Filiere does not exist"})
			return
		}
		student.FiliereID = req.FiliereID
	}
	if req.DossierMedicale != nil {
		student.DossierMedicale = *req.DossierMedicale
	}
	if req.Observation != nil {
		student.Observation = req.Observation
	}
	if req.Laureat != nil {
		student.Laureat = req.Laureat
	}
	if req.Mobilite != nil {
		student.Mobilite = req.Mobilite
	}
	if req.VieAssociative != nil {
		student.VieAssociative = req.VieAssociative
	}
	if req.Bourse != nil {
		student.Bourse = *req.Bourse
	}
	if req.TypeSection != nil {
		student.TypeSection = *req.TypeSection
	}

	// student.NumChambre still holds the prior room; the service needs it
	// to recompute the vacated room on a move
	if err := assignmentService().UpdateStudent(&student, req.NumChambre.Value, req.NumChambre.Set); err != nil {
		respondAssignmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Student updated", "data": student})
}

// DELETE /api/students/:id
func DeleteStudent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid student id"})
		return
	}

	if err := assignmentService().DeleteStudent(uint(id)); err != nil {
		if errors.Is(err, services.ErrStudentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Student not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not delete student"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Student deleted"})
}

// PUT /api/students/:id/room
func AssignStudentRoom(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid student id"})
		return
	}

	var req struct {
		NumChambre string `json:"num_chambre" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}

	if err := assignmentService().AssignStudent(uint(id), req.NumChambre); err != nil {
		respondAssignmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Student assigned", "num_chambre": req.NumChambre})
}

// DELETE /api/students/:id/room
func UnassignStudentRoom(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid student id"})
		return
	}

	if err := assignmentService().UnassignStudent(uint(id)); err != nil {
		respondAssignmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Student unassigned"})
}

// GET /api/students/:id/history
func GetStudentRoomHistory(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid student id"})
		return
	}

	var student models.Student
	if err := config.DB.First(&student, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Student not found"})
		return
	}

	history, err := assignmentService().HistoryForStudent(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": history})
}
