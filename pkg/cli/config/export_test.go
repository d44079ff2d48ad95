package config

// NewLLMForTest creates an LLM config for testing purposes
func NewLLMForTest(provider, geminiProject, openaiAPIKey string, dimension int) *LLM {
	return &LLM{
		provider:       provider,
		geminiProject:  geminiProject,
		geminiLocation: "us-central1",
		openaiAPIKey:   openaiAPIKey,
		dimension:      dimension,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

// NewVectorStoreForTest creates a VectorStore config for testing purposes
func NewVectorStoreForTest(backend, sqlitePath string) *VectorStore {
	return &VectorStore{backend: backend, sqlitePath: sqlitePath}
}

// NewPipelineForTest creates a Pipeline config for testing purposes
func NewPipelineForTest(path, namespace string) *Pipeline {
	return &Pipeline{path: path, namespace: namespace}
}

// NewWarehouseForTest creates a Warehouse config for testing purposes
func NewWarehouseForTest(source, projectID, jsonlURI string) *Warehouse {
	return &Warehouse{source: source, projectID: projectID, jsonlURI: jsonlURI}
}
