package prompt

import "fmt"

// GetSystemPrompt fixes the assistant persona for every review request.
func GetSystemPrompt() string {
	return "You are a helpful and professional code review assistant."
}

// GetUserPrompt builds the review instruction around one file's content.
// The model is told to answer with a single JSON document using the exact
// keys the parsing side expects; anything it adds around that document is
// stripped later by the response parser.
func GetUserPrompt(filename, code string) string {
	return fmt.Sprintf(
		"You are an expert software engineer. Review the following code from the file '%s'. "+
			"Analyze it for readability, modularity, best practices, performance, and potential bugs. "+
			"You MUST respond with a JSON object ONLY. The JSON must have the following structure and use the exact keys: "+
			"{ 'filename': '...', 'summary': '...', 'suggestions': { 'readability': '...', 'modularity': '...', 'best_practices': '...', 'performance': '...' }, 'potential_bugs': { 'reproducibility': '...', 'parameter_validation': '...' } } "+
			"Ensure the JSON output is well-formed and can be parsed directly. Do not include any text before or after the JSON.\n\n"+
			"Code to review:\n\n%s",
		filename, code,
	)
}
