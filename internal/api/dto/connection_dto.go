package dto

import "github.com/utilityops/records-service/internal/domain"

// ConnectionRequest carries connection fields as JSON or multipart form values.
type ConnectionRequest struct {
	AccountNumber          string `json:"accountNumber" form:"accountNumber"`
	OwnerName              string `json:"ownerName" form:"ownerName"`
	Address                string `json:"address" form:"address"`
	OwnerNIC               string `json:"ownerNIC" form:"ownerNIC"`
	OwnerPhone             string `json:"ownerPhone" form:"ownerPhone"`
	Area                   string `json:"area" form:"area"`
	GramaNiladhariDivision string `json:"gramaNiladhariDivision" form:"gramaNiladhariDivision"`
	DivisionalSecretariat  string `json:"divisionalSecretariat" form:"divisionalSecretariat"`
	Purpose                string `json:"purpose" form:"purpose"`
}

// ToDomain converts the request.
func (r ConnectionRequest) ToDomain() domain.Connection {
	return domain.Connection{
		AccountNumber:          r.AccountNumber,
		OwnerName:              r.OwnerName,
		Address:                r.Address,
		OwnerNIC:               r.OwnerNIC,
		OwnerPhone:             r.OwnerPhone,
		Area:                   r.Area,
		GramaNiladhariDivision: r.GramaNiladhariDivision,
		DivisionalSecretariat:  r.DivisionalSecretariat,
		Purpose:                r.Purpose,
	}
}

// ConnectionUpdateRequest is a partial update. AccountNumber is accepted so
// clients may echo the full record, but it is never applied.
type ConnectionUpdateRequest struct {
	AccountNumber          *string `json:"accountNumber"`
	OwnerName              *string `json:"ownerName"`
	Address                *string `json:"address"`
	OwnerNIC               *string `json:"ownerNIC"`
	OwnerPhone             *string `json:"ownerPhone"`
	Area                   *string `json:"area"`
	GramaNiladhariDivision *string `json:"gramaNiladhariDivision"`
	DivisionalSecretariat  *string `json:"divisionalSecretariat"`
	Purpose                *string `json:"purpose"`
}

// ToPatch drops the account number.
func (r ConnectionUpdateRequest) ToPatch() domain.ConnectionPatch {
	return domain.ConnectionPatch{
		OwnerName:              r.OwnerName,
		Address:                r.Address,
		OwnerNIC:               r.OwnerNIC,
		OwnerPhone:             r.OwnerPhone,
		Area:                   r.Area,
		GramaNiladhariDivision: r.GramaNiladhariDivision,
		DivisionalSecretariat:  r.DivisionalSecretariat,
		Purpose:                r.Purpose,
	}
}

// DeleteConnectionRequest carries the re-entered password.
type DeleteConnectionRequest struct {
	Password string `json:"password"`
}

// ConnectionListResponse is one page of connections.
type ConnectionListResponse struct {
	Total       int                 `json:"total"`
	Page        int                 `json:"page"`
	Pages       int                 `json:"pages"`
	Connections []domain.Connection `json:"connections"`
}
