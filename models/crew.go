package models

import "time"

// Crew is a standing team of employees. The crew-backed employee directory
// suggests its members for jobs at the apartments it covers.
type Crew struct {
	CrewID     string         `json:"crewID" dynamodbav:"crewID"`
	Tenant     TenantID       `json:"tenant" dynamodbav:"tenant" validate:"required"`
	Name       string         `json:"name" dynamodbav:"name" validate:"required,min=2,max=100"`
	Lead       EmployeeRef    `json:"lead" dynamodbav:"lead" validate:"required"`
	Members    []EmployeeRef  `json:"members" dynamodbav:"members"`
	Skills     []string       `json:"skills" dynamodbav:"skills"`
	Apartments []ApartmentRef `json:"apartments,omitempty" dynamodbav:"apartments,omitempty"`
	IsActive   bool           `json:"isActive" dynamodbav:"isActive"`
	CreatedAt  time.Time      `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt" dynamodbav:"updatedAt"`
}

// Covers reports whether the crew serves the apartment. A crew without an
// apartment list serves every apartment of its tenant.
func (c *Crew) Covers(apartment ApartmentRef) bool {
	if len(c.Apartments) == 0 {
		return true
	}
	for _, a := range c.Apartments {
		if a == apartment {
			return true
		}
	}
	return false
}

// Roster returns the lead followed by the members, without duplicates.
func (c *Crew) Roster() []EmployeeRef {
	seen := map[EmployeeRef]bool{}
	out := make([]EmployeeRef, 0, len(c.Members)+1)
	for _, e := range append([]EmployeeRef{c.Lead}, c.Members...) {
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

// CrewRequest asks the employee directory for candidates for one job.
type CrewRequest struct {
	Tenant      TenantID
	Apartment   ApartmentRef
	WindowStart time.Time
	WindowEnd   time.Time
	Preferred   []EmployeeRef
	MinSize     int
	MaxSize     int
}

type CrewFilter struct {
	Tenant   TenantID `json:"tenant,omitempty"`
	IsActive *bool    `json:"isActive,omitempty"`
}

type CreateCrewRequest struct {
	Name       string         `json:"name" validate:"required,min=2,max=100"`
	Lead       EmployeeRef    `json:"lead" validate:"required"`
	Members    []EmployeeRef  `json:"members,omitempty"`
	Skills     []string       `json:"skills,omitempty"`
	Apartments []ApartmentRef `json:"apartments,omitempty"`
}

// UpdateCrewRequest changes only the fields that are set.
type UpdateCrewRequest struct {
	Name       string         `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Lead       EmployeeRef    `json:"lead,omitempty"`
	Members    []EmployeeRef  `json:"members,omitempty"`
	Skills     []string       `json:"skills,omitempty"`
	Apartments []ApartmentRef `json:"apartments,omitempty"`
	IsActive   *bool          `json:"isActive,omitempty"`
}

type CrewMemberRequest struct {
	Member EmployeeRef `json:"member" validate:"required"`
}
