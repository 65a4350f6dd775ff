package model

type Language struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Template string `json:"template"`
}

const (
	LangCPP        = "cpp"
	LangPython     = "python"
	LangJava       = "java"
	LangJavaScript = "javascript"
)

// SupportedLanguages lists the editor languages in menu order.
func SupportedLanguages() []Language {
	return []Language{
		{ID: LangCPP, Name: "C++", Template: "#include <bits/stdc++.h>\nusing namespace std;\n\nint main() {\n    \n    return 0;\n}"},
		{ID: LangPython, Name: "Python", Template: "def main():\n    pass\n\nif __name__ == \"__main__\":\n    main()"},
		{ID: LangJava, Name: "Java", Template: "class Main {\n    public static void main(String[] args) {\n        \n    }\n}"},
		{ID: LangJavaScript, Name: "JavaScript", Template: "function main() {\n    \n}\n\nmain();"},
	}
}
