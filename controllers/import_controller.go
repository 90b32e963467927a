package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/dorm-ms/dorm-server/models"
)

// POST /api/students/import
// Expects an xlsx with the header: Matricule, Nom, Prenom, Annee universitaire,
// Type section, Chambre. Every row goes through the assignment service, so
// imported students respect room capacity like any other create.
func ImportStudentsXLSX(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing file"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Could not open file"})
		return
	}
	defer file.Close()

	wb, err := excelize.OpenReader(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "File is not a valid xlsx"})
		return
	}
	defer wb.Close()

	rows, err := wb.GetRows(wb.GetSheetName(0))
	if err != nil || len(rows) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Sheet is empty"})
		return
	}

	svc := assignmentService()
	imported := 0
	var failures []string

	// first row is the header
	for i, row := range rows[1:] {
		get := func(col int) string {
			if col < len(row) {
				return row[col]
			}
			return ""
		}

		student := models.Student{
			Matricule:          get(0),
			Nom:                get(1),
			Prenom:             get(2),
			AnneeUniversitaire: get(3),
			TypeSection:        get(4),
			DossierMedicale:    "non",
			Bourse:             "non",
		}
		if student.Nom == "" || student.Matricule == "" {
			failures = append(failures, fmt.Sprintf("row %d: missing nom or matricule", i+2))
			continue
		}
		if student.TypeSection == "" {
			student.TypeSection = "Interne"
		}
		if chambre := get(5); chambre != "" {
			student.NumChambre = &chambre
		}

		if err := svc.CreateStudent(&student); err != nil {
			failures = append(failures, fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}
		imported++
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Import finished",
		"imported": imported,
		"failed":   len(failures),
		"errors":   failures,
	})
}
