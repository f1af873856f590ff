package qc

// Pos represents a position in the input string.
type Pos struct {
	Offset int `json:"offset" yaml:"offset"`
	Line   int `json:"line" yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// TokenKind identifies the lexical class of a token.
type TokenKind int

const (
	KindEOF TokenKind = iota // synthetic end of stream, never stored in a TokenList

	KindIdent        // letters, digits, underscores, dashes; starts with a letter or underscore
	KindInt          // all-digit run
	KindPlain        // plain value run that is neither an identifier nor an integer
	KindString       // '...', "..." or `...`
	KindSpace        // run of spaces
	KindTab          // single tab
	KindNewline      // \n or \r\n
	KindLineComment  // // ... or # ...
	KindBlockComment /* ... */

	KindLParen   // (
	KindRParen   // )
	KindLBracket // [
	KindRBracket // ]
	KindLBrace   // {
	KindRBrace   // }

	KindStrictEq    // ===
	KindEqEq        // ==
	KindStrictNotEq // !==
	KindNotEq       // !=
	KindFatArrow    // =>
	KindArrow       // ->
	KindDashDash    // --
	KindOrOr        // ||
	KindAndAnd      // &&
	KindGtEq        // >=
	KindLtEq        // <=

	KindEquals    // =
	KindColon     // :
	KindSemicolon // ;
	KindComma     // ,
	KindDot       // .
	KindSlash     // /
	KindPipe      // |
	KindDollar    // $
	KindQuestion  // ?
	KindStar      // *
	KindDash      // -
	KindBang      // !
	KindPlus      // +
	KindGt        // >
	KindLt        // <
	KindAmp       // &
	KindAt        // @
	KindPercent   // %
	KindCaret     // ^
	KindTilde     // ~
	KindHash      // # when bash comments are disabled
	KindBackslash // \

	KindUnrecognized
)

var kindNames = map[TokenKind]string{
	KindEOF:          "end of input",
	KindIdent:        "identifier",
	KindInt:          "integer",
	KindPlain:        "value",
	KindString:       "string",
	KindSpace:        "space",
	KindTab:          "tab",
	KindNewline:      "newline",
	KindLineComment:  "comment",
	KindBlockComment: "block comment",
	KindLParen:       "'('",
	KindRParen:       "')'",
	KindLBracket:     "'['",
	KindRBracket:     "']'",
	KindLBrace:       "'{'",
	KindRBrace:       "'}'",
	KindStrictEq:     "'==='",
	KindEqEq:         "'=='",
	KindStrictNotEq:  "'!=='",
	KindNotEq:        "'!='",
	KindFatArrow:     "'=>'",
	KindArrow:        "'->'",
	KindDashDash:     "'--'",
	KindOrOr:         "'||'",
	KindAndAnd:       "'&&'",
	KindGtEq:         "'>='",
	KindLtEq:         "'<='",
	KindEquals:       "'='",
	KindColon:        "':'",
	KindSemicolon:    "';'",
	KindComma:        "','",
	KindDot:          "'.'",
	KindSlash:        "'/'",
	KindPipe:         "'|'",
	KindDollar:       "'$'",
	KindQuestion:     "'?'",
	KindStar:         "'*'",
	KindDash:         "'-'",
	KindBang:         "'!'",
	KindPlus:         "'+'",
	KindGt:           "'>'",
	KindLt:           "'<'",
	KindAmp:          "'&'",
	KindAt:           "'@'",
	KindPercent:      "'%'",
	KindCaret:        "'^'",
	KindTilde:        "'~'",
	KindHash:         "'#'",
	KindBackslash:    "'\\'",
	KindUnrecognized: "unrecognized character",
}

// String returns a human-readable name used in error messages.
func (k TokenKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsSpace reports whether k is horizontal whitespace.
func (k TokenKind) IsSpace() bool { return k == KindSpace || k == KindTab }

// IsComment reports whether k is a line or block comment.
func (k TokenKind) IsComment() bool { return k == KindLineComment || k == KindBlockComment }

// IsOpenBracket reports whether k opens a bracket pair.
func (k TokenKind) IsOpenBracket() bool {
	return k == KindLParen || k == KindLBracket || k == KindLBrace
}

// IsCloseBracket reports whether k closes a bracket pair.
func (k TokenKind) IsCloseBracket() bool {
	return k == KindRParen || k == KindRBracket || k == KindRBrace
}

// Token is a single lexical token. Spans are byte offsets into the source
// held by the owning TokenList.
type Token struct {
	Kind          TokenKind
	Start, End    int
	Line, EndLine int // 1-based
	Column        int // 1-based, in bytes
	LeadingIndent int // leading whitespace on the token's first line
	Pair          int // index of the matching bracket, -1 when unresolved
}

// Pos returns the start position of the token.
func (t Token) Pos() Pos {
	return Pos{Offset: t.Start, Line: t.Line, Column: t.Column}
}

// Paired returns the index of the matching bracket token.
func (t Token) Paired() (int, bool) {
	return t.Pair, t.Pair >= 0
}

// TokenList is the output of the lexer: the source text and its tokens.
type TokenList struct {
	Source string
	Tokens []Token
}

// Len returns the number of tokens.
func (l *TokenList) Len() int { return len(l.Tokens) }

// Text returns the source text covered by tok.
func (l *TokenList) Text(tok Token) string {
	if tok.Kind == KindEOF {
		return ""
	}
	return l.Source[tok.Start:tok.End]
}

// Unquote returns the contents of a string token with escapes resolved:
// a backslash makes the next character literal. Unterminated strings
// yield everything up to end of input.
func (l *TokenList) Unquote(tok Token) string {
	raw := l.Text(tok)
	if tok.Kind != KindString || raw == "" {
		return raw
	}
	delim := raw[0]
	body := raw[1:]
	if len(body) > 0 && body[len(body)-1] == delim && !escapedAt(body, len(body)-1) {
		body = body[:len(body)-1]
	}
	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
		}
		out = append(out, body[i])
	}
	return string(out)
}

// escapedAt reports whether s[i] is preceded by an odd number of backslashes.
func escapedAt(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}
