package utils

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"

	storage "github.com/supabase-community/storage-go"
)

const photoBucket = "dorm-photos"

// UploadStudentPhoto pushes a student photo to the Supabase bucket and
// returns its public URL.
func UploadStudentPhoto(fh *multipart.FileHeader, fileID string) (string, error) {
	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseKey := os.Getenv("SUPABASE_KEY")

	storageClient := storage.NewClient(supabaseURL+"/storage/v1", supabaseKey, nil)

	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	ext := filepath.Ext(fh.Filename)
	objectPath := fmt.Sprintf("students/%s%s", fileID, ext)

	upsert := true
	options := storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}

	if _, err := storageClient.UploadFile(photoBucket, objectPath, f, options); err != nil {
		return "", err
	}

	publicURL := storageClient.GetPublicUrl(photoBucket, objectPath)
	return publicURL.SignedURL, nil
}
