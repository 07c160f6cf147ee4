package econt

const (
	modeCalculate = "calculate"
	modeCreate    = "create"
)

// City mirrors the carrier's city nomenclature entry.
type City struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	NameEn      string `json:"nameEn"`
	PostCode    string `json:"postCode"`
	CountryCode string `json:"countryCode"`
}

// Office mirrors the carrier's pickup office entry.
type Office struct {
	ID       int    `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	NameEn   string `json:"nameEn"`
	CityID   int    `json:"cityID"`
	CityName string `json:"cityName"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	IsAPS    bool   `json:"isAPS"`
}

// Street mirrors the carrier's street nomenclature entry.
type Street struct {
	ID     int    `json:"id"`
	CityID int    `json:"cityID"`
	Name   string `json:"name"`
	NameEn string `json:"nameEn"`
}

// OfficesParams filter the office lookup.
type OfficesParams struct {
	CountryCode string
	CityID      int
}

// LabelAddress is the street-address destination of a label.
type LabelAddress struct {
	City     string `json:"city,omitempty"`
	PostCode string `json:"postCode,omitempty"`
	Street   string `json:"street,omitempty"`
	Other    string `json:"other,omitempty"`
}

// Label is the shipment description submitted to the carrier, for both
// dry-run calculation and real creation.
type Label struct {
	SenderName       string        `json:"senderName"`
	SenderPhone      string        `json:"senderPhone"`
	SenderOfficeCode string        `json:"senderOfficeCode,omitempty"`
	SenderAddress    *LabelAddress `json:"senderAddress,omitempty"`

	ReceiverName       string        `json:"receiverName"`
	ReceiverPhone      string        `json:"receiverPhone"`
	ReceiverEmail      string        `json:"receiverEmail,omitempty"`
	ReceiverOfficeCode string        `json:"receiverOfficeCode,omitempty"`
	ReceiverAddress    *LabelAddress `json:"receiverAddress,omitempty"`

	PackCount        int     `json:"packCount"`
	Weight           float64 `json:"weight"`
	ShipmentType     string  `json:"shipmentType,omitempty"`
	Description      string  `json:"shipmentDescription,omitempty"`
	SaturdayDelivery bool    `json:"saturdayDelivery,omitempty"`

	// CODAmount is denominated in the carrier currency (BGN).
	CODAmount   string `json:"cdAmount,omitempty"`
	CODCurrency string `json:"cdCurrency,omitempty"`
}

// Discount is one row of the carrier's discount breakdown.
type Discount struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// Calculation is the dry-run pricing result.
type Calculation struct {
	TotalPrice      float64    `json:"totalPrice"`
	SenderDueAmount float64    `json:"senderDueAmount"`
	Currency        string     `json:"currency"`
	Discounts       []Discount `json:"discounts"`
}

// CreatedShipment is the carrier's answer to a real label creation.
type CreatedShipment struct {
	ShipmentNumber string
	PDFURL         string
	TotalPrice     float64
	Currency       string
	RawRequest     string
	RawResponse    string
}

// TrackingEvent is one row of the carrier tracking history, newest first.
type TrackingEvent struct {
	Time        string `json:"time"`
	CityName    string `json:"cityName"`
	OfficeName  string `json:"officeName"`
	Description string `json:"description"`
}

// ShipmentStatus is the carrier's tracking snapshot for one waybill. Date
// fields stay raw strings; callers parse them defensively.
type ShipmentStatus struct {
	ShipmentNumber        string          `json:"shipmentNumber"`
	ShortDeliveryStatus   string          `json:"shortDeliveryStatus"`
	ShortDeliveryStatusEn string          `json:"shortDeliveryStatusEn"`
	TrackingEvents        []TrackingEvent `json:"trackingEvents"`
	DeliveryAttemptCount  int             `json:"deliveryAttemptCount"`
	ExpectedDeliveryDate  string          `json:"expectedDeliveryDate"`
	SendTime              string          `json:"sendTime"`
	DeliveryTime          string          `json:"deliveryTime"`
	CODCollectedTime      string          `json:"cdCollectedTime"`
	CODPaidTime           string          `json:"cdPaidTime"`
	PDFURL                string          `json:"pdfURL"`

	// RawResponse carries the batch response body the status came from.
	RawResponse string `json:"-"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type getCitiesRequest struct {
	CountryCode string `json:"countryCode"`
}

type getCitiesResponse struct {
	Cities []City `json:"cities"`
}

type getOfficesRequest struct {
	CountryCode string `json:"countryCode"`
	CityID      int    `json:"cityID,omitempty"`
}

type getOfficesResponse struct {
	Offices []Office `json:"offices"`
}

type getStreetsRequest struct {
	CityID int `json:"cityID"`
}

type getStreetsResponse struct {
	Streets []Street `json:"streets"`
}

type createLabelRequest struct {
	Label Label  `json:"label"`
	Mode  string `json:"mode"`
}

type createLabelResponse struct {
	Label struct {
		ShipmentNumber  string     `json:"shipmentNumber"`
		PDFURL          string     `json:"pdfURL"`
		TotalPrice      float64    `json:"totalPrice"`
		SenderDueAmount float64    `json:"senderDueAmount"`
		Currency        string     `json:"currency"`
		Discounts       []Discount `json:"discounts"`
	} `json:"label"`
}

type deleteLabelsRequest struct {
	ShipmentNumbers []string `json:"shipmentNumbers"`
}

type deleteLabelsResponse struct {
	Results []struct {
		ShipmentNumber string `json:"shipmentNumber"`
		Deleted        bool   `json:"deleted"`
	} `json:"results"`
}

type shipmentStatusesRequest struct {
	ShipmentNumbers []string `json:"shipmentNumbers"`
}

type shipmentStatusesResponse struct {
	ShipmentStatuses []struct {
		Status ShipmentStatus `json:"status"`
		Error  *apiError      `json:"error"`
	} `json:"shipmentStatuses"`
}
