// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package respond

// systemPrompt constrains the completion model to the retrieved passages.
const systemPrompt = `You are an assistant that answers questions using an organization's internal documents.
Answer using only the numbered context passages provided.
If the passages do not contain the answer, say honestly that the information is not available.
Cite the passages you relied on with their number, like [1].
Keep answers concise and clear.`

// noContextMessage is the reply when retrieval finds nothing above the
// score threshold. The completion model is not consulted.
const noContextMessage = "I couldn't find any relevant information in the indexed documents to answer that. " +
	"Try rephrasing the question, or upload the document that covers it."
