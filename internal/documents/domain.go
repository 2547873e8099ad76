package documents

// Document is a protected resource. Author and Editor hold principal
// display names; they are the dynamic attributes the edit policy checks.
type Document struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Editor string `json:"editor"`
}
