package pipeline

import (
	"fmt"
	"strings"

	"github.com/csheth/paperdraft/internal/paper"
)

const (
	draftSystemPrompt = "You are an expert researcher writing a paper for a peer-reviewed machine learning conference. " +
		"Your tone must be academic, formal, and objective."
	paragraphSystemPrompt = "You are an expert peer reviewer for a machine learning conference. " +
		"You edit academic papers at a paragraph level. Your task is to rewrite a single paragraph based on the provided criteria and the full context of the paper. " +
		"You MUST return only the rewritten paragraph text, with no extra commentary, formatting, or quotation marks."
	globalSystemPrompt = "You are an expert editor for a machine learning conference. " +
		"Your task is to review an entire research paper draft and identify the single most impactful section to improve. " +
		"You must rewrite that one section completely based on the provided criteria. Your response must be a valid JSON object."
	reviewSystemPrompt = "You are an expert peer reviewer for a machine learning conference. " +
		"Your task is to critically review and improve a section of a research paper."
)

const firstSectionPlaceholder = "This is the first section."

func buildDraftPrompt(name paper.SectionName, grounding, previous string) string {
	if strings.TrimSpace(previous) == "" {
		previous = firstSectionPlaceholder
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Based on the provided context, write the %q section of a research paper about the repository below.\n\n", name.String())
	b.WriteString("**Repository Content (Source Material):**\n---\n")
	b.WriteString(grounding)
	b.WriteString("\n---\n\n")
	b.WriteString("**Previously Written Sections (for context and coherence):**\n---\n")
	b.WriteString(previous)
	b.WriteString("\n---\n\n")
	fmt.Fprintf(&b, "Now, write the complete content for the %q section only.", name.String())
	return b.String()
}

func buildParagraphPrompt(name paper.SectionName, fullPaper, paragraph string, opts paper.EditingOptions) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are editing a single paragraph within the %q section.\n\n", name.String())
	b.WriteString("**Instructions:**\n")
	b.WriteString("1. " + Instruction(opts) + "\n")
	b.WriteString("2. Ensure the rewritten paragraph is coherent with the rest of the paper provided in the context below.\n")
	b.WriteString("3. Your response must be ONLY the rewritten text of the paragraph. Do not wrap it in quotes or add explanations.\n\n")
	b.WriteString("**Full Paper Draft (for context):**\n---\n")
	b.WriteString(fullPaper)
	b.WriteString("\n---\n\n")
	b.WriteString("**Original Paragraph to Rewrite:**\n---\n")
	b.WriteString(paragraph)
	b.WriteString("\n---\n\n")
	b.WriteString("**Rewritten Paragraph:**")
	return b.String()
}

func buildGlobalPrompt(fullPaper string, opts paper.EditingOptions) string {
	names := make([]string, 0, len(paper.Order))
	for _, name := range paper.Order {
		names = append(names, fmt.Sprintf("%q", name.String()))
	}
	var b strings.Builder
	b.WriteString("Review the entire paper draft below and choose exactly ONE section to rewrite and improve based on the following instructions.\n\n")
	b.WriteString("**Instructions:**\n")
	b.WriteString("1. Your improvement should focus on: " + Instruction(opts) + "\n")
	b.WriteString("2. Select the single section where this improvement would be most impactful.\n")
	b.WriteString("3. Rewrite the entire content for that chosen section.\n")
	b.WriteString(`4. Your response MUST be a JSON object with two keys: "sectionToUpdate" and "newContent".` + "\n")
	b.WriteString(`5. The value for "sectionToUpdate" must be one of the following exact strings: ` + strings.Join(names, ", ") + ".\n\n")
	b.WriteString("**Full Paper Draft:**\n---\n")
	b.WriteString(fullPaper)
	b.WriteString("\n---\n\n")
	b.WriteString("Now, provide your response in the specified JSON format.")
	return b.String()
}

func buildReviewPrompt(section *paper.Section, grounding string, opts paper.EditingOptions) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are reviewing the %q section.\n\n", section.Title.String())
	b.WriteString("**Source Material from the Repository:**\n---\n")
	b.WriteString(grounding)
	b.WriteString("\n---\n\n")
	b.WriteString("**Current Draft of the Section:**\n---\n")
	b.WriteString(section.Content)
	b.WriteString("\n---\n\n")
	b.WriteString("**Instructions:**\n")
	b.WriteString("1. Rewrite the entire section. " + Instruction(opts) + "\n")
	b.WriteString("2. Critically check for any statements in the draft that are hasty, unverified, or not directly supported by the provided source material.\n")
	b.WriteString("3. If you find such statements, add a comment explaining what needs clarification, verification, or evidence from the human researcher. Do not make up facts or references.\n\n")
	b.WriteString(`Return ONLY JSON that matches: {"editedContent":"","comments":[""]}. Use an empty array when there are no comments.`)
	return b.String()
}
