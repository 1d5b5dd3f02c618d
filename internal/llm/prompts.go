package llm

const extractionPrompt = `You are a fact extraction system. Strip all editorialization, bias and opinion from the news headline below and return only verifiable facts.

Rules:
1. Keep what, where, when, how many; keep numbers, locations, names and actions.
2. Remove loaded language, speculation and attribution of motive ("slammed" becomes "criticized", "orders" becomes "ruled" for judicial actions).
3. Use official titles for officials ("President X", "Senator Y"), never bare last names.
4. Judges: full name and court when the headline has them.
5. One sentence, present tense for ongoing events.
6. If there is no verifiable fact, return "SKIP" as the fact.

A story is newsworthy only if it meets at least one threshold: death or violent crime; 500+ people affected; $1M+ cost or investment; law or regulation change; border change; major scientific achievement; humanitarian milestone; action by a head of state or government; major economic indicator; international agreement or diplomatic action; natural disaster, pandemic or public health emergency.

Respond ONLY with JSON, no markdown:
{"fact":"...","confidence":0-100,"newsworthy":true|false,"threshold_met":"which threshold or none"}

Headline:
%s`

const sameEventPrompt = `Compare the new fact against the numbered list below.
Return ONLY the numbers of the facts that describe the SAME EVENT as the new fact.
Same event means the same incident, the same person doing the same action, or the same announcement. Counts and wording may differ.

New fact: %s

Existing facts:
%s

Reply with ONLY comma-separated numbers (e.g. "1,3") or "NONE".`

const duplicatePrompt = `Does the new fact describe the SAME EVENT as any fact in the list below?
Same event means the same incident, the same person doing the same action, or the same announcement. Counts and wording may differ.

New fact: %s

Published facts:
%s

Reply with ONLY "YES" or "NO".`

const contradictionPrompt = `Check whether the NEW FACT contradicts any of the numbered FACTS below.

NEW FACT: %s

FACTS:
%s

A contradiction means both cannot be true for the same event (e.g. "5 dead" vs "3 dead"). Updates and additions are NOT contradictions.
Set "retract" to true only when the listed fact is simply false and the new fact does not replace it with a corrected version.

Respond ONLY with JSON, no markdown:
{"contradiction":true|false,"index":number of the contradicted fact or 0,"reason":"brief explanation","retract":true|false}`

const deltaPrompt = `Compare these two facts about the SAME event.

EXISTING (already published): %s

NEW SOURCE: %s

Extract ONLY genuinely new, verifiable information from NEW SOURCE that is not already stated or implied in EXISTING. Do not rephrase existing information.
If there is new information, return it as one short factual sentence. Otherwise return exactly NO_NEW_INFO.

Respond ONLY with JSON, no markdown:
{"new_detail":"the new sentence or NO_NEW_INFO"}`

// noNewInfo is the delta sentinel.
const noNewInfo = "NO_NEW_INFO"
