package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/angelmondragon/parcelflow-backend/api/responses"
	"github.com/angelmondragon/parcelflow-backend/pkg/econt"
	pkgerrors "github.com/angelmondragon/parcelflow-backend/pkg/errors"
	"github.com/angelmondragon/parcelflow-backend/pkg/logger"
)

const defaultCountryCode = "BGR"

// LocationCities proxies the carrier's city directory.
func LocationCities(client *econt.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "carrier client unavailable"))
			return
		}

		country := strings.TrimSpace(r.URL.Query().Get("country"))
		if country == "" {
			country = defaultCountryCode
		}

		cities, err := client.GetCities(r.Context(), country)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch cities"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"cities": cities})
	}
}

// LocationOffices lists the carrier's pickup offices, optionally scoped to a city.
func LocationOffices(client *econt.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "carrier client unavailable"))
			return
		}

		params := econt.OfficesParams{CountryCode: defaultCountryCode}
		if country := strings.TrimSpace(r.URL.Query().Get("country")); country != "" {
			params.CountryCode = country
		}
		if cityID, err := parseOptionalInt(r, "city_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		} else if cityID != nil {
			params.CityID = *cityID
		}

		offices, err := client.GetOffices(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch offices"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"offices": offices})
	}
}

// LocationStreets lists the carrier's street directory for one city.
func LocationStreets(client *econt.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "carrier client unavailable"))
			return
		}

		cityID, err := parseOptionalInt(r, "city_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if cityID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "city_id is required"))
			return
		}

		streets, err := client.GetStreets(r.Context(), *cityID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch streets"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"streets": streets})
	}
}

func parseOptionalInt(r *http.Request, key string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a positive integer").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}
