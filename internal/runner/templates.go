package runner

var templates = map[string]string{
	"python":     "# Write your solution here\ndef solution():\n    pass",
	"javascript": "// Write your solution here\nfunction solution() {\n    \n}",
	"java":       "public class Solution {\n    public static void main(String[] args) {\n        // Write your solution here\n    }\n}",
	"csharp":     "using System;\n\npublic class Solution {\n    public static void Main() {\n        // Write your solution here\n    }\n}",
	"cpp":        "#include <iostream>\nusing namespace std;\n\nint main() {\n    // Write your solution here\n    return 0;\n}",
	"sql":        "-- Write your SQL query here\nSELECT * FROM table_name;",
}

// Template returns the starter code for a language, or "" when there is none.
func Template(language string) string {
	return templates[language]
}

// EditorLanguage returns the editor syntax mode for a language. Unknown languages fall back to python.
func EditorLanguage(language string) string {
	if _, ok := templates[language]; ok {
		return language
	}
	return "python"
}
