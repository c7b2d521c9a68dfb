// Package parser runs the lex pipeline (lexer, tree builder, classifier and
// assembler) over one document and extracts its outline.
package parser
