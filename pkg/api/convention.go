package api

type (
	// Convention holds the routing information derived from a feature
	// directory. It is resolved once per feature and never mutated
	// afterward
	Convention struct {
		Method        Method `json:"method"`
		Path          string `json:"path"`
		StepsDir      string `json:"steps_dir,omitempty"`
		AsyncTasksDir string `json:"async_tasks_dir,omitempty"`
	}
)

// Route returns the method and path as a single display string
func (c *Convention) Route() string {
	return string(c.Method) + " " + c.Path
}
