package api

import (
	"errors"
	"net/http"

	"github.com/Kalinka5/osint-vm/internal/store"
)

// imageDTO is the read-only wire form of a ledger row. The ledger has no
// write surface here: rows are created by the ingestion pipeline only.
type imageDTO struct {
	ID        int64  `json:"id"`
	CompanyID int64  `json:"company_id"`
	ImageURL  string `json:"image_url"`
	ImageHash string `json:"image_hash"`
}

func toImageDTO(img store.StoredImage) imageDTO {
	return imageDTO{
		ID:        img.ID,
		CompanyID: img.CompanyID,
		ImageURL:  img.Address,
		ImageHash: img.Digest,
	}
}

func (s *Server) listCompanyImages(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parseLimitOffset(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	images, err := s.stores.Images.ListStoredImages(r.Context(), limit, offset)
	if err != nil {
		s.internalError(w, "failed to list company images", err)
		return
	}
	dtos := make([]imageDTO, 0, len(images))
	for _, img := range images {
		dtos = append(dtos, toImageDTO(img))
	}
	writeJSON(w, http.StatusOK, map[string]any{"company_images": dtos})
}

func (s *Server) getCompanyImageByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	img, err := s.stores.Images.GetStoredImage(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "stored image not found")
		return
	}
	if err != nil {
		s.internalError(w, "failed to load stored image", err)
		return
	}
	writeJSON(w, http.StatusOK, toImageDTO(img))
}
