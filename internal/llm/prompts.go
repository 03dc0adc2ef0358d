package llm

import (
	"fmt"
	"strings"

	"github.com/avolkov/hopweaver/internal/model"
)

const claimPromptTemplate = `A "claim" is a statement or assertion made within a text expressing a belief, opinion, or fact. Given evidence from the original context, please extract one claim and its associated topics.

Note: The claim should not contain ambiguous references, such as 'he', 'she', and 'it', and should use complete names. If there are multiple topics, give the most dominant one. The target of the claim (one entity) is the specific individual, group, or organization that the statement or assertion within a text is directed towards or about which it is making a case. The topic of the claim should be a simple phrase representing the claim's central argument concept. If there is no claim, please leave it blank. Please generate a claim based on the given evidence. Don't generate the evidence yourself.

Please give the response following this format:
##Evidence: {original context}
##Claims: {extracted claim}
##Claim Target: {target}
##Claim Topic: {topic}

Now, it's your turn.
##Input: %s`

const multiHopPromptTemplate = `Based on the following evidence, generate a complex multi-hop query that requires connecting multiple pieces of information to answer.

Evidence:
%s

Requirements:
1. Ensure coherence: the question must flow logically from the combined information and be clear and unambiguous.
2. You don't need to use all the evidence, just the most relevant pieces.
3. The question must not be answerable from any single piece of evidence alone.
4. The question should require at least 3 logical steps to answer.
5. The question should be one single question, not parallel questions linked with "and" or "or".
6. The answer should be specific and factual, no longer than 10 words.

Output in the following format:
{"query": "multi-hop query", "answer": "answer"}`

// ClaimPrompt builds the extraction prompt for one content chunk
func ClaimPrompt(chunk string) string {
	return fmt.Sprintf(claimPromptTemplate, chunk)
}

// MultiHopPrompt builds the question-generation prompt from the selected
// claim records, numbering each claim as an evidence line.
func MultiHopPrompt(records []model.ClaimRecord) string {
	var sb strings.Builder
	for i, rec := range records {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, rec.Claim)
	}
	return fmt.Sprintf(multiHopPromptTemplate, strings.TrimSpace(sb.String()))
}
