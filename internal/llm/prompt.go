package llm

import "strings"

// MaxPromptTextLen bounds the document text sent to the extraction
// service. Truncation is silent and not reported as data loss.
const MaxPromptTextLen = 10000

func buildPrompt(text string) string {
	if len(text) > MaxPromptTextLen {
		text = text[:MaxPromptTextLen]
	}

	var b strings.Builder
	b.WriteString(`You are an intelligent data extraction assistant for an ERP system.

Step 1: Analyze the text to determine if it is a relevant business document (Invoice, Quote, Receipt, Purchase Order, or Product List/Catalog).
Step 2: If it is NOT relevant (e.g., a recipe, a poem, a legal contract, general news, or random text), return a JSON object indicating invalidity.
Step 3: If it IS relevant, extract a list of Product Items.

Output must be a valid JSON object with the following structure:
{
    "is_valid_document": boolean,
    "validation_reason": "string (Why is it valid or invalid?)",
    "items": [
        {
            "item_code": "Concise, uppercase, slug-like code (e.g. 'WLESS-MOUSE')",
            "item_name": "Product Name",
            "description": "Full description",
            "item_group": "Inferred Category (e.g. Electronics, Packaging)",
            "stock_uom": "Unit (Nos, Kg, Box)",
            "standard_rate": 0.0
        }
    ]
}

Do NOT write markdown code blocks. Just return the raw JSON.

Text to process:
"""
`)
	b.WriteString(text)
	b.WriteString("\n\"\"\"\n")
	return b.String()
}
