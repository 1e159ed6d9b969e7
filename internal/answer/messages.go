package answer

import "strings"

// Language selects the fixed phrases and prompt instructions used for answers.
type Language string

const (
	Spanish Language = "es"
	English Language = "en"
)

// ParseLanguage maps a language code to a supported Language, defaulting to Spanish.
func ParseLanguage(code string) Language {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "en", "english":
		return English
	default:
		return Spanish
	}
}

type phrases struct {
	noDocuments     string
	noAnswer        string
	citationPrefix  string
	filenameAnswer  string
	processingError string
	missingKey      string
	passageLabel    string // ordinal, page
	instructions    string // language instruction, no-answer phrase, citation line
	availableInfo   string

	documentTerms []string
	nameTerms     []string
}

var catalog = map[Language]phrases{
	Spanish: {
		noDocuments:     "No se encontraron documentos relevantes para tu pregunta. Por favor, intenta reformular la pregunta o sube un documento con la información necesaria.",
		noAnswer:        "No puedo encontrar la respuesta en la información proporcionada.",
		citationPrefix:  "La información se encuentra en la(s) página(s):",
		filenameAnswer:  "El nombre del archivo es: %s",
		processingError: "Error al procesar tu pregunta: %v",
		missingKey:      "Error: OpenAI API key is missing or empty. Please check your .env file.",
		passageLabel:    "--- Documento %d (página %d) ---",
		instructions: `Instrucciones para responder a la pregunta del usuario:

1. Responde ÚNICAMENTE en base a la información proporcionada a continuación.
2. Responde en español de forma clara y concisa.
3. Si no encuentras la respuesta en la información dada, di "%s"
4. No inventes información ni hagas suposiciones fuera del contenido dado.
5. Si encuentras la respuesta, incluye al final: "%s"`,
		availableInfo: "Información disponible:",
		documentTerms: []string{"nombre del archivo", "archivo", "documento", "pdf"},
		nameTerms:     []string{"nombre"},
	},
	English: {
		noDocuments:     "No relevant documents were found for your question. Please try rephrasing the question or upload a document containing the information you need.",
		noAnswer:        "I cannot find the answer in the provided information.",
		citationPrefix:  "The information can be found on page(s):",
		filenameAnswer:  "The file name is: %s",
		processingError: "Error processing your question: %v",
		missingKey:      "Error: OpenAI API key is missing or empty. Please check your .env file.",
		passageLabel:    "--- Document %d (page %d) ---",
		instructions: `Instructions for answering the user's question:

1. Answer ONLY based on the information provided below.
2. Answer in English, clearly and concisely.
3. If you cannot find the answer in the given information, say "%s"
4. Do not invent information or make assumptions beyond the given content.
5. If you find the answer, include at the end: "%s"`,
		availableInfo: "Available information:",
		documentTerms: []string{"file name", "filename", "file", "document", "pdf"},
		nameTerms:     []string{"name", "called"},
	},
}
