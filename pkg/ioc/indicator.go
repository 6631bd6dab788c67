package ioc

// Indicator is one indicator of compromise as returned by the Falcon IOC
// API. The first block of fields is client-modifiable; the rest is owned by
// the API and ignored on create/update.
type Indicator struct {
	Type            string         `json:"type"`
	Value           string         `json:"value"`
	Action          string         `json:"action"`
	MobileAction    string         `json:"mobile_action,omitempty"`
	Description     string         `json:"description,omitempty"`
	Severity        string         `json:"severity,omitempty"`
	AppliedGlobally bool           `json:"applied_globally,omitempty"`
	HostGroups      []string       `json:"host_groups,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Platforms       []string       `json:"platforms,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	Expiration      string         `json:"expiration,omitempty"`
	Source          string         `json:"source,omitempty"`

	// Returned by the API, not intended to be modified by the client.
	ID            string `json:"id,omitempty"`
	Expired       bool   `json:"expired,omitempty"`
	Deleted       bool   `json:"deleted,omitempty"`
	FromParent    bool   `json:"from_parent,omitempty"`
	ParentCIDName string `json:"parent_cid_name,omitempty"`
	CreatedOn     string `json:"created_on,omitempty"`
	CreatedBy     string `json:"created_by,omitempty"`
	ModifiedOn    string `json:"modified_on,omitempty"`
	ModifiedBy    string `json:"modified_by,omitempty"`
}

// indicatorRequest is the subset of fields the create and update endpoints
// accept.
type indicatorRequest struct {
	ID              string         `json:"id,omitempty"`
	Type            string         `json:"type"`
	Value           string         `json:"value"`
	Action          string         `json:"action"`
	MobileAction    string         `json:"mobile_action,omitempty"`
	Severity        string         `json:"severity,omitempty"`
	Platforms       []string       `json:"platforms,omitempty"`
	Description     string         `json:"description,omitempty"`
	Expiration      string         `json:"expiration,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	AppliedGlobally bool           `json:"applied_globally,omitempty"`
	HostGroups      []string       `json:"host_groups,omitempty"`
	Source          string         `json:"source,omitempty"`
}

// requestPayload maps the indicator onto its client-modifiable fields.
func (i Indicator) requestPayload() indicatorRequest {
	return indicatorRequest{
		ID:              i.ID,
		Type:            i.Type,
		Value:           i.Value,
		Action:          i.Action,
		MobileAction:    i.MobileAction,
		Severity:        i.Severity,
		Platforms:       i.Platforms,
		Description:     i.Description,
		Expiration:      i.Expiration,
		Metadata:        i.Metadata,
		Tags:            i.Tags,
		AppliedGlobally: i.AppliedGlobally,
		HostGroups:      i.HostGroups,
		Source:          i.Source,
	}
}

// Action is one valid IOC action type as reported by the actions endpoint.
type Action struct {
	ID          string   `json:"id"`
	Label       string   `json:"label,omitempty"`
	Description string   `json:"description,omitempty"`
	Platforms   []string `json:"platforms,omitempty"`
}
