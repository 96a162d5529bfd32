package prompts

import (
	"bytes"
	"embed"
	"text/template"
)

//go:embed templates/*
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.md"))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderRAGPrompt renders the answer-generation prompt. context is the formatted document block.
func RenderRAGPrompt(context, question string) (string, error) {
	return render("rag_user.md", struct {
		Context  string
		Question string
	}{Context: context, Question: question})
}

// RouterInstructions is the system prompt asking for {"datasource": "websearch"|"vectorstore"}.
func RouterInstructions() (string, error) {
	return render("router_system.md", nil)
}

func RenderDocGraderPrompt(document, question string) (systemPrompt, userPrompt string, err error) {
	systemPrompt, err = render("doc_grader_system.md", nil)
	if err != nil {
		return "", "", err
	}

	userPrompt, err = render("doc_grader_user.md", struct {
		Document string
		Question string
	}{Document: document, Question: question})
	if err != nil {
		return "", "", err
	}

	return systemPrompt, userPrompt, nil
}

func RenderHallucinationGraderPrompt(documents, generation string) (systemPrompt, userPrompt string, err error) {
	systemPrompt, err = render("hallucination_grader_system.md", nil)
	if err != nil {
		return "", "", err
	}

	userPrompt, err = render("hallucination_grader_user.md", struct {
		Documents  string
		Generation string
	}{Documents: documents, Generation: generation})
	if err != nil {
		return "", "", err
	}

	return systemPrompt, userPrompt, nil
}

func RenderAnswerGraderPrompt(question, generation string) (systemPrompt, userPrompt string, err error) {
	systemPrompt, err = render("answer_grader_system.md", nil)
	if err != nil {
		return "", "", err
	}

	userPrompt, err = render("answer_grader_user.md", struct {
		Question   string
		Generation string
	}{Question: question, Generation: generation})
	if err != nil {
		return "", "", err
	}

	return systemPrompt, userPrompt, nil
}
