package model

const (
	RoleAdmin    = "ADMIN"
	RoleOperator = "OPERATOR"
)

type Clearance string

const (
	ClearancePublic       Clearance = "PUBLIC"
	ClearanceConfidential Clearance = "CONFIDENTIAL"
	ClearanceSecret       Clearance = "SECRET"
	ClearanceTopSecret    Clearance = "TOP_SECRET"
)

// ClearanceLevels is ordered from lowest to highest.
var ClearanceLevels = []Clearance{
	ClearancePublic,
	ClearanceConfidential,
	ClearanceSecret,
	ClearanceTopSecret,
}

// Rank returns the position of c in ClearanceLevels. ok is false for
// strings outside the fixed set.
func (c Clearance) Rank() (rank int, ok bool) {
	for i, level := range ClearanceLevels {
		if level == c {
			return i, true
		}
	}
	return -1, false
}

// Satisfies reports whether c is at least as high as required. Unknown
// levels on either side never satisfy.
func (c Clearance) Satisfies(required Clearance) bool {
	have, ok := c.Rank()
	if !ok {
		return false
	}
	need, ok := required.Rank()
	if !ok {
		return false
	}
	return have >= need
}

type User struct {
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	HashedPassword string    `json:"-"` // Not exposed
	Role           string    `json:"role"`
	Clearance      Clearance `json:"clearance_level"`
	Unit           string    `json:"unit"`
	// Key in the credential table ("admin", "operator").
	UserType string `json:"-"`
}

// UserInfo is the subset returned on login.
type UserInfo struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func (u *User) Info() UserInfo {
	return UserInfo{
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
	}
}
