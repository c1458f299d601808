package assistant

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are an expert assistant for Casper Network development."

type promptText struct {
	intro    string
	context  string
	rules    string
	question string
	answer   string
	noSource string
}

var prompts = map[string]promptText{
	"en": {
		intro:   "You are an expert in Casper Network development, a Proof-of-Stake blockchain. Your mission is to help learners understand Casper in a clear and pedagogical way.",
		context: "PROVIDED CONTEXT:",
		rules: `RULES:
1. Answer ONLY based on the context provided above.
2. If the context does not contain the answer, say so clearly.
3. Provide code examples when relevant.
4. Explain complex concepts simply.
5. Reference the source links when available.
6. Be concise but complete.`,
		question: "User question:",
		answer:   "Provide a complete and pedagogical answer:",
		noSource: "(no matching learning content)",
	},
	"fr": {
		intro:   "Tu es un expert du développement sur Casper Network, une blockchain Proof-of-Stake. Ta mission est d'aider les apprenants à comprendre Casper de manière claire et pédagogique.",
		context: "CONTEXTE FOURNI :",
		rules: `RÈGLES :
1. Réponds UNIQUEMENT à partir du contexte fourni ci-dessus.
2. Si le contexte ne contient pas la réponse, dis-le clairement.
3. Donne des exemples de code quand c'est pertinent.
4. Explique simplement les concepts complexes.
5. Cite les liens des sources quand ils sont disponibles.
6. Sois concis mais complet.`,
		question: "Question de l'utilisateur :",
		answer:   "Réponds de manière complète et pédagogique :",
		noSource: "(aucun contenu d'apprentissage correspondant)",
	},
}

// buildPrompt renders the user prompt for lang; unknown languages use English.
func buildPrompt(lang, question string, passages []Passage) string {
	p, ok := prompts[lang]
	if !ok {
		p = prompts["en"]
	}

	var sb strings.Builder
	sb.WriteString(p.intro + "\n\n")
	sb.WriteString(p.context + "\n")
	if len(passages) == 0 {
		sb.WriteString(p.noSource + "\n")
	}
	for i, passage := range passages {
		sb.WriteString(fmt.Sprintf("\n[Source %d] %s\n", i+1, passage.Title))
		sb.WriteString("URL: " + passage.URL + "\n")
		sb.WriteString(fmt.Sprintf("Relevance: %.0f%%\n", passage.Relevance*100))
		sb.WriteString(passage.Content + "\n")
	}
	sb.WriteString("\n" + p.rules + "\n\n")
	sb.WriteString(p.question + " " + question + "\n\n")
	sb.WriteString(p.answer)
	return sb.String()
}
