package tools

var descriptors = map[Kind]Descriptor{
	KindWriteFile: {
		Name:        KindWriteFile.String(),
		Description: "Write content to a file in the data directory",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"path":    {Type: "string", Description: "File path relative to the data directory"},
				"content": {Type: "string", Description: "Content to write"},
			},
			Required: []string{"path", "content"},
		},
	},
	KindExecuteSQL: {
		Name:        KindExecuteSQL.String(),
		Description: "Execute a SQL query against the database",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {Type: "string", Description: "SQL query to execute"},
				"parameters": {
					Type:        "array",
					Description: "Positional query parameters",
					Items:       &Property{Type: "string"},
				},
			},
			Required: []string{"query"},
		},
	},
	KindCacheSet: {
		Name:        KindCacheSet.String(),
		Description: "Set a value in the cache",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"key":   {Type: "string", Description: "Cache key"},
				"value": {Type: "string", Description: "Value to store"},
				"ttl":   {Type: "integer", Description: "Time to live in seconds", Default: defaultTTLSeconds},
			},
			Required: []string{"key", "value"},
		},
	},
	KindCacheGet: {
		Name:        KindCacheGet.String(),
		Description: "Get a value from the cache",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"key": {Type: "string", Description: "Cache key"},
			},
			Required: []string{"key"},
		},
	},
	KindListDirectory: {
		Name:        KindListDirectory.String(),
		Description: "List the contents of a directory in the data directory",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"path": {Type: "string", Description: "Directory path relative to the data directory", Default: "."},
			},
		},
	},
	KindAnalyzeCSV: {
		Name:        KindAnalyzeCSV.String(),
		Description: "Analyze a CSV file in the data directory without loading it into memory",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"file_path": {Type: "string", Description: "CSV file path relative to the data directory"},
				"limit":     {Type: "integer", Description: "Maximum number of rows to buffer", Default: defaultCSVLimit},
				"analysis_type": {
					Type:        "string",
					Description: "Kind of analysis to perform",
					Default:     analysisSummary,
					Enum:        []string{analysisSummary, analysisHead, analysisDescribe},
				},
			},
			Required: []string{"file_path"},
		},
	},
}
