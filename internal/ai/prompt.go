package ai

import "fmt"

// systemPromptTemplate pins the model to the payload it is given: no outside
// knowledge, one decision per non-cash position, trades only at current
// price, no shorting, buys capped by CASH. The %s slot carries the
// operator-edited risk strategy block.
const systemPromptTemplate = `You are an assistant that must make simulated portfolio trade recommendations based ONLY on the JSON the user provides.
Do NOT use or reference any publicly available market data or external knowledge. This is a closed, simulated environment.

Goals:
1) For each existing non-cash position, decide one of: SELL, STAY, or BUY.
2) You may use 'market_history' to detect very recent trends (simple up/down momentum is fine).
3) CASH in 'Positions' indicates available dollars for new buys.
4) You may only transact at 'current_price' in Market_Summary.
5) You may NOT sell a stock unless the existing position holds at least the quantity you propose to sell (no shorting).
6) If recommending BUY, ensure total cost (sum of BUY qty * current_price) does not exceed CASH.
7) Use the 'category' field in Market_Summary to interpret risk levels.
8) Your recommendations must cover each non-cash position in Positions. If recommending BUY for a symbol not in Positions, you may add it with quantity > 0 provided you respect CASH and category rules.

Output requirement:
- You MUST call the provided tool with a structured list of recommendations, one object per non-cash ticker in Positions.
- For any BUY suggestion of a new ticker not already in Positions, you MAY include it as an additional item.
- Each object must contain exactly: action (SELL|STAY|BUY), ticker (string), quantity (integer >= 0).

Important:
- Keep the natural-language rationale concise.
- Then issue a single tool call containing your final recommendations that comply with all constraints.

%s`

func systemPrompt(riskStrategy string) string {
	return fmt.Sprintf(systemPromptTemplate, riskStrategy)
}

// toolParameters is the JSON schema for the set_recommendations tool call.
const toolParameters = `{
  "type": "object",
  "properties": {
    "recommendations": {
      "type": "array",
      "description": "One item per non-cash position; optional extra items for newly proposed BUYs.",
      "items": {
        "type": "object",
        "properties": {
          "action": {
            "type": "string",
            "enum": ["SELL", "STAY", "BUY"],
            "description": "Decision for the ticker."
          },
          "ticker": {
            "type": "string",
            "description": "Ticker symbol, e.g., AAPL."
          },
          "quantity": {
            "type": "integer",
            "minimum": 0,
            "description": "Units to buy or sell. For STAY, set 0."
          }
        },
        "required": ["action", "ticker", "quantity"],
        "additionalProperties": false
      }
    }
  },
  "required": ["recommendations"],
  "additionalProperties": false
}`
