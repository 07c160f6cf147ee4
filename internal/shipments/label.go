package shipments

import (
	"strings"

	"github.com/angelmondragon/parcelflow-backend/pkg/config"
	"github.com/angelmondragon/parcelflow-backend/pkg/currency"
	"github.com/angelmondragon/parcelflow-backend/pkg/db/models"
	"github.com/angelmondragon/parcelflow-backend/pkg/econt"
	"github.com/angelmondragon/parcelflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/parcelflow-backend/pkg/errors"
)

const (
	defaultPackCount = 1
	// defaultWeightKG is assumed when the order carries no weight information.
	defaultWeightKG = 1.0

	shipmentTypePack    = "PACK"
	shipmentDescription = "Online store order"
)

// BuildLabel assembles the carrier label payload for a shipment. The sender
// identity comes from deployment configuration; an office code takes priority
// over a free-form sender address. The COD amount is converted into the
// carrier currency before submission.
func BuildLabel(cfg config.EcontConfig, conv currency.Converter, shipment *models.Shipment) (econt.Label, error) {
	label := econt.Label{
		SenderName:  cfg.SenderName,
		SenderPhone: cfg.SenderPhone,

		ReceiverName:  shipment.RecipientName(),
		ReceiverPhone: shipment.Phone,

		PackCount:        defaultPackCount,
		Weight:           defaultWeightKG,
		ShipmentType:     shipmentTypePack,
		Description:      shipmentDescription,
		SaturdayDelivery: shipment.AllowSaturdayDelivery,
	}
	if shipment.Email != nil {
		label.ReceiverEmail = *shipment.Email
	}

	if cfg.SenderOfficeCode != "" {
		label.SenderOfficeCode = cfg.SenderOfficeCode
	} else {
		label.SenderAddress = &econt.LabelAddress{
			City:     cfg.SenderCity,
			PostCode: cfg.SenderPostCode,
			Street:   cfg.SenderStreet,
		}
	}

	switch shipment.DeliveryType {
	case enums.DeliveryTypeOffice:
		if shipment.OfficeCode == nil || strings.TrimSpace(*shipment.OfficeCode) == "" {
			return econt.Label{}, pkgerrors.New(pkgerrors.CodeValidation, "office delivery requires an office code")
		}
		label.ReceiverOfficeCode = strings.TrimSpace(*shipment.OfficeCode)
	case enums.DeliveryTypeAddress:
		if deref(shipment.City) == "" || deref(shipment.AddressLine1) == "" {
			return econt.Label{}, pkgerrors.New(pkgerrors.CodeValidation, "address delivery requires a city and street address")
		}
		label.ReceiverAddress = &econt.LabelAddress{
			City:     deref(shipment.City),
			PostCode: deref(shipment.PostCode),
			Street:   deref(shipment.AddressLine1),
			Other:    supplementaryInfo(shipment),
		}
	default:
		return econt.Label{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery type")
	}

	if shipment.CODAmount.IsPositive() {
		label.CODAmount = conv.ToCarrier(shipment.CODAmount).StringFixed(2)
		label.CODCurrency = conv.CarrierCurrency().String()
	}

	return label, nil
}

// supplementaryInfo flattens the free-text address fields into one labeled,
// comma-joined string. Empty parts are dropped.
func supplementaryInfo(shipment *models.Shipment) string {
	parts := make([]string, 0, 5)
	if v := deref(shipment.AddressLine2); v != "" {
		parts = append(parts, v)
	}
	if v := deref(shipment.Entrance); v != "" {
		parts = append(parts, "entrance "+v)
	}
	if v := deref(shipment.Floor); v != "" {
		parts = append(parts, "floor "+v)
	}
	if v := deref(shipment.Apartment); v != "" {
		parts = append(parts, "apt "+v)
	}
	if v := deref(shipment.Neighborhood); v != "" {
		parts = append(parts, "quarter "+v)
	}
	return strings.Join(parts, ", ")
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
