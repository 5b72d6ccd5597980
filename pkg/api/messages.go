package api

type (
	// HealthResponse provides service health information
	HealthResponse struct {
		Service  string `json:"service"`
		Version  string `json:"version"`
		Features int    `json:"features"`
	}

	// RouteInfo describes one mounted feature route
	RouteInfo struct {
		Method Method `json:"method"`
		Path   string `json:"path"`
		Dir    string `json:"dir"`
		Steps  int    `json:"steps"`
		Tasks  int    `json:"tasks,omitempty"`
	}

	// RoutesResponse lists all mounted feature routes
	RoutesResponse struct {
		Routes []*RouteInfo `json:"routes"`
		Count  int          `json:"count"`
	}

	// MessageResponse contains a simple message string
	MessageResponse struct {
		Message string `json:"message"`
	}

	// ErrorResponse contains error details for failed requests
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status,omitempty"`
	}
)
