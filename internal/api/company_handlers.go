package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Kalinka5/osint-vm/internal/store"
)

// companyRequest is the JSON payload for create and update. The image
// reference is owned by the ingestion pipeline and is not settable here.
type companyRequest struct {
	About               string  `json:"about"`
	YearFounded         string  `json:"year_founded"`
	Website             string  `json:"website"`
	NumberOfEmployeesID *int64  `json:"number_of_employees_id"`
	LinkedIn            *string `json:"linkedin"`
	Facebook            *string `json:"facebook"`
	Twitter             *string `json:"twitter"`
}

type companyDTO struct {
	ID                  int64   `json:"id"`
	About               string  `json:"about"`
	YearFounded         string  `json:"year_founded"`
	Website             string  `json:"website"`
	NumberOfEmployeesID *int64  `json:"number_of_employees_id"`
	LinkedIn            *string `json:"linkedin"`
	Facebook            *string `json:"facebook"`
	Twitter             *string `json:"twitter"`
	ImageID             *int64  `json:"image_id"`
}

func toCompanyDTO(c store.Company) companyDTO {
	return companyDTO{
		ID:                  c.ID,
		About:               c.About,
		YearFounded:         c.YearFounded,
		Website:             c.Website,
		NumberOfEmployeesID: c.NumberOfEmployeesID,
		LinkedIn:            c.LinkedIn,
		Facebook:            c.Facebook,
		Twitter:             c.Twitter,
		ImageID:             c.ImageID,
	}
}

func (req companyRequest) validate() error {
	if strings.TrimSpace(req.About) == "" {
		return errors.New("about is required")
	}
	if len(req.YearFounded) > 4 {
		return errors.New("year_founded must be at most 4 characters")
	}
	return nil
}

// checkEmployeesBucket returns a 400-worthy error when the referenced
// number_of_employees row does not exist.
func (s *Server) checkEmployeesBucket(ctx context.Context, id *int64) error {
	if id == nil {
		return nil
	}
	_, err := s.stores.Reference.GetNamed(ctx, "number_of_employees", *id)
	if errors.Is(err, store.ErrNotFound) {
		return errors.New("invalid number_of_employees_id: bucket does not exist")
	}
	return err
}

func (s *Server) listCompanies(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parseLimitOffset(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	companies, err := s.stores.Companies.ListCompanies(r.Context(), limit, offset)
	if err != nil {
		s.internalError(w, "failed to list companies", err)
		return
	}
	dtos := make([]companyDTO, 0, len(companies))
	for _, c := range companies {
		dtos = append(dtos, toCompanyDTO(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"companies": dtos})
}

func (s *Server) getCompany(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := s.stores.Companies.GetCompany(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "company not found")
		return
	}
	if err != nil {
		s.internalError(w, "failed to load company", err)
		return
	}
	writeJSON(w, http.StatusOK, toCompanyDTO(c))
}

func (s *Server) createCompany(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.checkEmployeesBucket(r.Context(), req.NumberOfEmployeesID); err != nil {
		if errors.Is(err, store.ErrNotFound) || strings.HasPrefix(err.Error(), "invalid") {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.internalError(w, "failed to validate company", err)
		return
	}

	created, err := s.stores.Companies.CreateCompany(r.Context(), store.Company{
		About:               req.About,
		YearFounded:         req.YearFounded,
		Website:             req.Website,
		NumberOfEmployeesID: req.NumberOfEmployeesID,
		LinkedIn:            req.LinkedIn,
		Facebook:            req.Facebook,
		Twitter:             req.Twitter,
	})
	if err != nil {
		s.internalError(w, "failed to create company", err)
		return
	}
	writeJSON(w, http.StatusCreated, toCompanyDTO(created))
}

func (s *Server) updateCompany(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req companyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	existing, err := s.stores.Companies.GetCompany(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "company not found")
		return
	}
	if err != nil {
		s.internalError(w, "failed to load company", err)
		return
	}
	if err := s.checkEmployeesBucket(r.Context(), req.NumberOfEmployeesID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing.About = req.About
	existing.YearFounded = req.YearFounded
	existing.Website = req.Website
	existing.NumberOfEmployeesID = req.NumberOfEmployeesID
	existing.LinkedIn = req.LinkedIn
	existing.Facebook = req.Facebook
	existing.Twitter = req.Twitter

	updated, err := s.stores.Companies.UpdateCompany(r.Context(), existing)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "company not found")
		return
	}
	if err != nil {
		s.internalError(w, "failed to update company", err)
		return
	}
	writeJSON(w, http.StatusOK, toCompanyDTO(updated))
}

func (s *Server) deleteCompany(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.stores.Companies.DeleteCompany(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "company not found")
			return
		}
		s.internalError(w, "failed to delete company", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getCompanyImage resolves the company's stored image, following the
// companies.image_id reference into the ledger.
func (s *Server) getCompanyImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := s.stores.Companies.GetCompany(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "company not found")
		return
	}
	if err != nil {
		s.internalError(w, "failed to load company", err)
		return
	}
	if c.ImageID == nil {
		writeError(w, http.StatusNotFound, "company has no image")
		return
	}
	img, err := s.stores.Images.GetStoredImage(r.Context(), *c.ImageID)
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
