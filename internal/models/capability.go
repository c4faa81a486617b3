package models

// Capability names checked against role_capabilities.
const (
	CapabilityCohortView   = "cohort:view"
	CapabilityCohortManage = "cohort:manage"
)
