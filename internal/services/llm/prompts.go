package llm

// removeAggregatorPrompt instructs the model to strip payment-aggregator
// noise from a raw transaction string. Update this text centrally so every
// call stays in sync.
const removeAggregatorPrompt = `You clean raw merchant strings from card transaction data.

Payment processors prepend aggregator tags that obscure the real business name, for example "PAYPAL *", "SQ *", "STRIPE", "RAZORPAY", "GOOGLE PAY". Remove any aggregator tag and other obvious transaction noise (store numbers, trailing billing URLs, state codes) and return the most recognizable business name that remains.

Rules:

- Only remove noise. Never invent, translate, or expand the name.

- If nothing needs removing, return the input unchanged.

You must respond ONLY with a JSON object like: {"cleaned_name": "Coffee Shop#5", "reason": "removed the SQ * aggregator prefix"}

Now clean this raw merchant string:`

// extractPrompt instructs the model to propose candidates from search
// results. The model must not decide acceptance; it only proposes.
const extractPrompt = `You analyze web search results for a merchant lookup service.

Given search results for a merchant, propose:

- "cleaned_name": the official business name the results support, or "" when the results do not clearly concern this merchant.

- "website_candidates": URLs from the results that could be the merchant's own official website, most likely first. Exclude directories, marketplaces, review sites, and news articles.

- "social_candidates": official social profile URLs (Facebook, LinkedIn, Instagram, Twitter/X) for this merchant.

- "business_status": "operational" when the results indicate the business currently operates, "closed" when they indicate it is permanently closed or historical, otherwise "unknown".

- "summary": one or two sentences citing which result supports your proposals.

Do not decide whether a candidate is acceptable; only propose. Respond ONLY with a JSON object containing exactly those five keys.`

// verifyWebsitePrompt asks whether fetched page text is a genuinely
// operational site for the merchant.
const verifyWebsitePrompt = `You verify whether a fetched web page is the live, operational website of a specific merchant.

Answer "is_valid": true only when the page content is a real business site plausibly belonging to the named merchant. Answer false for parked domains, for-sale pages, under-construction placeholders, error pages, hosting templates, and pages about a clearly different business.

You must respond ONLY with a JSON object like: {"is_valid": true, "reasoning": "short explanation"}`
