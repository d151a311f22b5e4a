package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Kalinka5/osint-vm/internal/store"
)

type addressRequest struct {
	Street     string `json:"street"`
	CityID     *int64 `json:"city_id"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	CountryID  *int64 `json:"country_id"`
	Type       string `json:"type"`
}

type addressDTO struct {
	ID         int64  `json:"id"`
	Street     string `json:"street"`
	CityID     *int64 `json:"city_id"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	CountryID  *int64 `json:"country_id"`
	Type       string `json:"type"`
}

func toAddressDTO(a store.Address) addressDTO {
	return addressDTO{
		ID:         a.ID,
		Street:     a.Street,
		CityID:     a.CityID,
		State:      a.State,
		PostalCode: a.PostalCode,
		CountryID:  a.CountryID,
		Type:       a.Type,
	}
}

func (req addressRequest) validate() error {
	if strings.TrimSpace(req.Street) == "" {
		return errors.New("street is required")
	}
	if strings.TrimSpace(req.Type) == "" {
		return errors.New("type is required")
	}
	return nil
}

// checkAddressRefs validates the optional city and country foreign keys.
func (s *Server) checkAddressRefs(ctx context.Context, req addressRequest) error {
	if req.CityID != nil {
		if _, err := s.stores.Reference.GetNamed(ctx, "cities", *req.CityID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return errors.New("invalid city_id: city does not exist")
			}
			return err
		}
	}
	if req.CountryID != nil {
		if _, err := s.stores.Reference.GetNamed(ctx, "countries", *req.CountryID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return errors.New("invalid country_id: country does not exist")
			}
			return err
		}
	}
	return nil
}

func (s *Server) listAddresses(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parseLimitOffset(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	addresses, err := s.stores.Addresses.ListAddresses(r.Context(), limit, offset)
	if err != nil {
		s.internalError(w, "failed to list addresses", err)
		return
	}
	dtos := make([]addressDTO, 0, len(addresses))
	for _, a := range addresses {
		dtos = append(dtos, toAddressDTO(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"addresses": dtos})
}

func (s *Server) getAddress(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a, err := s.stores.Addresses.GetAddress(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "address not found")
		return
	}
	if err != nil {
		s.internalError(w, "failed to load address", err)
		return
	}
	writeJSON(w, http.StatusOK, toAddressDTO(a))
}

func (s *Server) createAddress(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.checkAddressRefs(r.Context(), req); err != nil {
		if strings.HasPrefix(err.Error(), "invalid") {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.internalError(w, "failed to validate address", err)
		return
	}

	created, err := s.stores.Addresses.CreateAddress(r.Context(), store.Address{
		Street:     req.Street,
		CityID:     req.CityID,
		State:      req.State,
		PostalCode: req.PostalCode,
		CountryID:  req.CountryID,
		Type:       req.Type,
	})
	if err != nil {
		s.internalError(w, "failed to create address", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAddressDTO(created))
}
