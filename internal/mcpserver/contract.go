package mcpserver

// ClassifierRules describes how address-bar text is turned into a URL, for LLM
// consumers deciding what to pass to resolve_input or open_url.
const ClassifierRules = `# Omnibar Classification Rules

Input is treated as a web address when the WHOLE string matches:

    optional scheme   http:// or https://
    host              one or more labels of letters (any script), digits, '_' or '-', each followed by '.'
    top-level label   at least two letters (any script), digits or '_'
    optional tail     '/' followed by letters, digits and - . _ ~ : / ? # [ ] @ ! $ & ' ( ) * + , ; =

- Addresses with a scheme are loaded unchanged.
- Addresses without a scheme get https:// prepended.
- Anything else (spaces, quotes, ports, symbols or emoji in the host, bare words) becomes a
  search query: spaces are replaced with '+' and the text is appended to the
  configured search endpoint.

Examples:

| input                          | result                                        |
| ------------------------------ | --------------------------------------------- |
| example.com                    | https://example.com                           |
| münchen.de                     | https://münchen.de                            |
| http://example.com/path?q=1    | http://example.com/path?q=1                   |
| openai gpt                     | https://www.google.com/search?q=openai+gpt    |
| foo bar.com                    | https://www.google.com/search?q=foo+bar.com   |
| (empty)                        | https://www.google.com/search?q=              |
`
