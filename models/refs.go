package models

// Opaque references to records owned by other modules. The scheduler stores
// and copies them but never looks inside.

type TenantID string

type ApartmentRef string

type CategoryRef string

type ServiceRef string

type TemplateRef string

type ContractRef string

type EmployeeRef string

type TimeEntryRef string

type MaterialRef string

// JobRef identifies an OperationJob by its tenant-unique code.
type JobRef string

func (t TenantID) String() string { return string(t) }

func (a ApartmentRef) String() string { return string(a) }

func (e EmployeeRef) String() string { return string(e) }

// LocalizedText maps a language tag ("en", "de", ...) to text.
type LocalizedText map[string]string

// Default returns the English value, or any value when English is missing.
func (l LocalizedText) Default() string {
	if v, ok := l["en"]; ok {
		return v
	}
	for _, v := range l {
		return v
	}
	return ""
}
