package domain

import (
	"strings"
	"time"
)

// Connection is one physical service account.
type Connection struct {
	AccountNumber          string    `json:"accountNumber"`
	OwnerName              string    `json:"ownerName"`
	Address                string    `json:"address"`
	OwnerNIC               string    `json:"ownerNIC"`
	OwnerPhone             string    `json:"ownerPhone"`
	Area                   string    `json:"area"`
	GramaNiladhariDivision string    `json:"gramaNiladhariDivision,omitempty"`
	DivisionalSecretariat  string    `json:"divisionalSecretariat,omitempty"`
	Purpose                string    `json:"purpose"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// ConnectionPatch carries a partial update. Nil fields are left untouched.
// The account number is deliberately absent: it cannot change after creation.
type ConnectionPatch struct {
	OwnerName              *string
	Address                *string
	OwnerNIC               *string
	OwnerPhone             *string
	Area                   *string
	GramaNiladhariDivision *string
	DivisionalSecretariat  *string
	Purpose                *string
}

// Apply copies the non-nil patch fields onto c.
func (p ConnectionPatch) Apply(c *Connection) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&c.OwnerName, p.OwnerName)
	set(&c.Address, p.Address)
	set(&c.OwnerNIC, p.OwnerNIC)
	set(&c.OwnerPhone, p.OwnerPhone)
	set(&c.Area, p.Area)
	set(&c.GramaNiladhariDivision, p.GramaNiladhariDivision)
	set(&c.DivisionalSecretariat, p.DivisionalSecretariat)
	set(&c.Purpose, p.Purpose)
}

// MissingFields lists the required attributes that are empty.
func (c *Connection) MissingFields() []string {
	var missing []string
	check := func(name, val string) {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, name)
		}
	}
	check("accountNumber", c.AccountNumber)
	check("ownerName", c.OwnerName)
	check("address", c.Address)
	check("ownerNIC", c.OwnerNIC)
	check("ownerPhone", c.OwnerPhone)
	check("area", c.Area)
	check("purpose", c.Purpose)
	return missing
}
