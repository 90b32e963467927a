package controllers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"os"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/dorm-ms/dorm-server/config"
	"github.com/dorm-ms/dorm-server/models"
)

type ExportRequest struct {
	Format    string  `json:"format"` // csv | xlsx
	Pavilion  *string `json:"pavilion,omitempty"`
	FiliereID *uint   `json:"filiere_id,omitempty"`
}

var exportHeader = []string{"Matricule", "Nom", "Prenom", "Filiere", "Annee universitaire", "Type section", "Chambre"}

// POST /api/students/export
func CreateExport(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload"})
		return
	}
	if req.Format == "" {
		req.Format = "csv"
	}
	if req.Format != "csv" && req.Format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Format must be csv or xlsx"})
		return
	}

	jobID := uuid.New().String()
	job := models.ExportJob{
		JobID:     jobID,
		Format:    req.Format,
		Pavilion:  req.Pavilion,
		FiliereID: req.FiliereID,
		Status:    "queued",
	}
	if err := config.DB.Create(&job).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not create export job"})
		return
	}

	go processExportJob(jobID)

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": jobID,
		"status": "queued",
	})
}

// GET /api/exports/:job_id
func GetExport(c *gin.Context) {
	jobID := c.Param("job_id")
	var job models.ExportJob
	if err := config.DB.First(&job, "job_id = ?", jobID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "DB error"})
		return
	}

	if job.Status == "done" && job.FilePath != nil {
		c.FileAttachment(*job.FilePath, path.Base(*job.FilePath))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id": job.JobID,
		"status": job.Status,
		"error":  job.ErrorMsg,
	})
}

func processExportJob(jobID string) {
	var job models.ExportJob
	if err := config.DB.First(&job, "job_id = ?", jobID).Error; err != nil {
		return
	}
	config.DB.Model(&job).Update("status", "processing")

	outDir := "./exports"
	os.MkdirAll(outDir, 0755)

	query := config.DB.Model(&models.Student{}).Preload("Filiere").Order("nom asc, prenom asc")
	if job.Pavilion != nil {
		query = query.Where(
			"num_chambre IN (?)",
			config.DB.Model(&models.Room{}).Select("room_number").Where("pavilion = ?", *job.Pavilion),
		)
	}
	if job.FiliereID != nil {
		query = query.Where("filiere_id = ?", *job.FiliereID)
	}

	var students []models.Student
	if err := query.Find(&students).Error; err != nil {
		failExportJob(&job, err.Error())
		return
	}

	var outPath string
	var err error
	if job.Format == "xlsx" {
		outPath = path.Join(outDir, fmt.Sprintf("students_%s.xlsx", job.JobID))
		err = writeStudentsXLSX(outPath, students)
	} else {
		outPath = path.Join(outDir, fmt.Sprintf("students_%s.csv", job.JobID))
		err = writeStudentsCSV(outPath, students)
	}
	if err != nil {
		failExportJob(&job, err.Error())
		return
	}

	config.DB.Model(&job).Updates(map[string]interface{}{
		"status":    "done",
		"file_path": outPath,
	})
}

func failExportJob(job *models.ExportJob, msg string) {
	config.DB.Model(job).Updates(map[string]interface{}{
		"status":    "failed",
		"error_msg": msg,
	})
}

func exportRow(st models.Student) []string {
	filiere := ""
	if st.Filiere != nil {
		filiere = st.Filiere.Name
	}
	chambre := "Aucune"
	if st.NumChambre != nil {
		chambre = *st.NumChambre
	}
	return []string{
		st.Matricule,
		st.Nom,
		st.Prenom,
		filiere,
		st.AnneeUniversitaire,
		st.TypeSection,
		chambre,
	}
}

func writeStudentsCSV(outPath string, students []models.Student) error {
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(exportHeader); err != nil {
		return err
	}
	for _, st := range students {
		if err := w.Write(exportRow(st)); err != nil {
			return err
		}
	}
	return nil
}

func writeStudentsXLSX(outPath string, students []models.Student) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for col, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, title)
	}
	for i, st := range students {
		for col, v := range exportRow(st) {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}
	return f.SaveAs(outPath)
}
