package mcp

// AddTopicInput defines the input schema for the add_knowledge_topic tool.
type AddTopicInput struct {
	Topic     string `json:"topic" jsonschema:"the research topic to search for on arXiv, e.g. 'Lambertian Reflectance' or 'Shadow Analysis'"`
	MaxPapers int    `json:"max_papers,omitempty" jsonschema:"maximum number of papers to download and process, default 5"`
}

// AddTopicOutput defines the output schema for the add_knowledge_topic tool.
type AddTopicOutput struct {
	Topic        string `json:"topic" jsonschema:"the ingested topic"`
	NewEntries   int    `json:"new_entries" jsonschema:"number of knowledge chunks stored by this call"`
	TotalEntries int    `json:"total_entries" jsonschema:"total knowledge chunks in the database after ingestion"`
	Report       string `json:"report" jsonschema:"human-readable ingestion summary"`
}

// ConsultInput defines the input schema for the consult_physics_expert tool.
type ConsultInput struct {
	Question   string `json:"question" jsonschema:"the physics question to search for, e.g. 'How do shadows affect normal estimation?'"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"number of relevant passages to retrieve, default 3"`
}

// PassageOutput is one retrieved passage with its citation.
type PassageOutput struct {
	Text      string  `json:"text" jsonschema:"the matched passage text"`
	SourceID  string  `json:"source_id" jsonschema:"arXiv paper identifier for citation"`
	Title     string  `json:"title" jsonschema:"paper or artifact title"`
	Page      int     `json:"page" jsonschema:"1-based page number, 0 for repository artifacts"`
	URL       string  `json:"url" jsonschema:"citation URL"`
	Relevance float64 `json:"relevance" jsonschema:"relevance score, larger is better"`
}

// ConsultOutput defines the output schema for the consult_physics_expert tool.
type ConsultOutput struct {
	Passages []PassageOutput `json:"passages" jsonschema:"retrieved passages, most relevant first"`
	Report   string          `json:"report" jsonschema:"human-readable answer with citations"`
}

// VerifySourceInput defines the input schema for the verify_source tool.
type VerifySourceInput struct {
	PaperID string `json:"paper_id" jsonschema:"the arXiv paper ID to verify, e.g. '2002.01588v1'"`
}

// VerifySourceOutput defines the output schema for the verify_source tool.
type VerifySourceOutput struct {
	Found   bool   `json:"found" jsonschema:"whether the paper is known to the knowledge base"`
	PaperID string `json:"paper_id" jsonschema:"the requested paper ID"`
	Title   string `json:"title,omitempty" jsonschema:"full paper title"`
	URL     string `json:"url,omitempty" jsonschema:"paper URL for verification"`
	Report  string `json:"report" jsonschema:"human-readable citation details"`
}

// StatsInput defines the input schema for the get_knowledge_stats tool (no parameters).
type StatsInput struct{}

// StatsOutput defines the output schema for the get_knowledge_stats tool.
type StatsOutput struct {
	TotalEntries   int    `json:"total_entries" jsonschema:"total knowledge chunks stored"`
	EmbeddingModel string `json:"embedding_model" jsonschema:"active embedding model"`
	Dimensions     int    `json:"dimensions" jsonschema:"embedding dimension"`
	Report         string `json:"report" jsonschema:"human-readable statistics"`
}
