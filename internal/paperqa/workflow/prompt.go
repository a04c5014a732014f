package workflow

const graderSystemPrompt = `You grade whether a retrieved document is relevant to a user question.
The check is loose: a document is relevant if it contains keywords or meaning related to the question.
Reply with exactly one word: yes or no.`

const graderPromptTemplate = `Retrieved document:

%s

User question: %s

Is the document relevant to the question? Answer yes or no.`

const generatorSystemPrompt = `You answer questions about research papers using only the documents supplied in the context.
If the documents do not contain the answer, say so plainly instead of guessing.
Write the answer in markdown.`

const generatorPromptTemplate = `Context documents:

%s

Question: %s

Answer:`

// NoEvidenceText fills the context block when nothing survived retrieval.
const NoEvidenceText = "No grounding evidence was found."
