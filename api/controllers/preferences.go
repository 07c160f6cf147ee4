package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/parcelflow-backend/api/responses"
	"github.com/angelmondragon/parcelflow-backend/api/validators"
	"github.com/angelmondragon/parcelflow-backend/internal/preferences"
	"github.com/angelmondragon/parcelflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/parcelflow-backend/pkg/errors"
	"github.com/angelmondragon/parcelflow-backend/pkg/logger"
)

type saveDeliveryRequest struct {
	DeliveryType string `json:"delivery_type" validate:"required,oneof=office address"`

	OfficeCode *string `json:"office_code,omitempty"`
	OfficeName *string `json:"office_name,omitempty"`

	City                  *string `json:"city,omitempty"`
	PostCode              *string `json:"post_code,omitempty"`
	AddressLine1          *string `json:"address_line1,omitempty"`
	AddressLine2          *string `json:"address_line2,omitempty"`
	Entrance              *string `json:"entrance,omitempty"`
	Floor                 *string `json:"floor,omitempty"`
	Apartment             *string `json:"apartment,omitempty"`
	Neighborhood          *string `json:"neighborhood,omitempty"`
	AllowSaturdayDelivery bool    `json:"allow_saturday_delivery"`

	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Phone     string  `json:"phone" validate:"required"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`

	CODAmount string `json:"cod_amount,omitempty"`
}

// SaveDeliveryPreference stores the cart's delivery selection and refreshes
// its draft shipment.
func SaveDeliveryPreference(svc preferences.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "preferences service unavailable"))
			return
		}

		cartID, err := parseCartID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req saveDeliveryRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deliveryType, err := enums.ParseDeliveryType(req.DeliveryType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery type"))
			return
		}

		codAmount := decimal.Zero
		if req.CODAmount != "" {
			codAmount, err = decimal.NewFromString(req.CODAmount)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cod amount"))
				return
			}
		}

		input := preferences.SaveInput{
			CartID:                cartID,
			DeliveryType:          deliveryType,
			OfficeCode:            req.OfficeCode,
			OfficeName:            req.OfficeName,
			City:                  req.City,
			PostCode:              req.PostCode,
			AddressLine1:          req.AddressLine1,
			AddressLine2:          req.AddressLine2,
			Entrance:              req.Entrance,
			Floor:                 req.Floor,
			Apartment:             req.Apartment,
			Neighborhood:          req.Neighborhood,
			AllowSaturdayDelivery: req.AllowSaturdayDelivery,
			FirstName:             validators.SanitizeString(req.FirstName, 100),
			LastName:              validators.SanitizeString(req.LastName, 100),
			Phone:                 validators.SanitizeString(req.Phone, 32),
			Email:                 req.Email,
			CODAmount:             codAmount,
		}

		pref, err := svc.Save(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pref)
	}
}

// GetDeliveryPreference returns the cart's stored delivery selection.
func GetDeliveryPreference(svc preferences.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "preferences service unavailable"))
			return
		}

		cartID, err := parseCartID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pref, err := svc.Get(r.Context(), cartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pref)
	}
}

// CalculateDeliveryCost quotes the carrier price for the cart's selection.
func CalculateDeliveryCost(svc preferences.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "preferences service unavailable"))
			return
		}

		cartID, err := parseCartID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.CalculateCost(r.Context(), cartID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

func parseCartID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "cartId")
	cartID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cart id")
	}
	return cartID, nil
}
