package report

// FirstHalfPrompt 报告前半部分：摘要、行业分析、财务分析
const FirstHalfPrompt = `Perform a detailed evaluation of the 10-K filing and generate the first half of an equity analysis report, 
strictly adhering to the following format in Markdown:

## 1. Executive Summary
- Provide a concise overview of the company, its industry, and key takeaways from the report.

## 2. Industry Analysis
- Analyze the industry in which the company operates, covering trends, competition, and growth potential.

## 3. Financial Analysis
- Conduct a comprehensive review of the company's financial statements, including ratio analysis, cash flow trends, and profitability.

## 3. Financial Analysis
- Provide a narrative discussion of the company's financial statements, highlighting trends, anomalies, or significant observations.

### 3.1 Income Statement Analysis
- **Profitability Trends**: Assess net income and operating income trends, noting any irregularities or key events.

### 3.2 Balance Sheet Analysis
- **Liquidity and Solvency**: Evaluate the company's short-term and long-term financial position, referencing key balance sheet items.

### 3.3 Cash Flow Statement Analysis
- **Free Cash Flow Trends**: Examine the trajectory of free cash flow and discuss any influencing factors.

DO NOT INCLUDE ANY CONCLUSIONS HERE.
`

// SecondHalfPrompt 报告后半部分：估值、SWOT、风险、结论
const SecondHalfPrompt = `Perform a detailed evaluation of the 10-K filing and generate the second half of an equity analysis report, 
strictly adhering to the following format in Markdown:

## 4. Valuation

- Provide a qualitative assessment of the company’s valuation based on the information available in the 10-K report.

### 4.1 Market Perception
- **Investor Sentiment**: Analyze any commentary on investor sentiment or market perception mentioned in the 10-K.
- **Historical Stock Performance**: Review historical stock performance and discuss any influencing factors highlighted in the 10-K.

### 4.2 Forward-Looking Statements
- **Outlook and Projections**: Summarize any forward-looking statements or financial outlook provided in the 10-K.
- **Strategic Initiatives**: Highlight strategic initiatives or plans discussed in the 10-K that could impact future valuation.

## 5. SWOT Analysis
- Present a breakdown of the company’s Strengths, Weaknesses, Opportunities, and Threats.

## 6. Risk Factors
- **Identified Risks**: Summarize key risk factors from the 10-K that could affect the company’s valuation.
- **Mitigation Strategies**: Discuss any strategies mentioned to mitigate these risks.

## 7. Conclusion & Recommendations
- Provide a clear statement on the analyst’s perspective regarding the stock (buy, hold, sell) along with the supporting rationale.
`
