// Package chunking は、ドキュメントを文単位の境界でチャンク分割する処理を提供します。
// 日本語と英語の両方に対応し、Kagome（日本語形態素解析）とprose（英語文分割）を使用します。
package chunking

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"github.com/jdkato/prose/v2"
)

var (
	// 日本語と英語の句読点と改行2個以上で文を分割するための正規表現。すべての改行コードに対応：CRLF、LF、CR。
	SplitSentencesRegexp = regexp.MustCompile(`[。！？.!?]\s*|(?:\r\n|\r|\n){2,}`)
)

// Chunk はチャンク分割結果の1件です。
type Chunk struct {
	Index     int
	Text      string
	CharCount int
}

// Chunker は、テキストをチャンクに分割します。
type Chunker struct {
	MaxChars  int                  // チャンクの最大文字数
	Overlap   int                  // チャンク間のオーバーラップ文字数
	Tokenizer *tokenizer.Tokenizer // 日本語形態素解析器（Kagome）
}

// NewChunker は、新しいChunkerを作成します。
func NewChunker(maxChars, overlap int) (*Chunker, error) {
	// Kagome形態素解析器を初期化
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize kagome tokenizer: %w", err)
	}
	return &Chunker{
		MaxChars:  maxChars,
		Overlap:   overlap,
		Tokenizer: t,
	}, nil
}

// Split は、テキストを文字数ベースでチャンクに分割します。
// 重要：文（sentence）を最小単位とし、文の途中で分割することはありません。
// 1. 文単位に分割（SplitSentences）
// 2. 文字数をカウントしながら、文単位でチャンクを構築
// 3. オーバーラップを考慮して前のチャンクの末尾の文を次のチャンクの先頭に含める
func (c *Chunker) Split(text string) []Chunk {
	sentences := []string{}
	for _, s := range c.SplitSentences(text) {
		// MaxCharsを超える文は単語境界で断片化してから詰める
		if utf8.RuneCountInString(s) > c.MaxChars {
			sentences = append(sentences, c.splitLongSentence(s)...)
			continue
		}
		sentences = append(sentences, s)
	}
	var chunks []Chunk
	var currentChunk []string
	currentChars := 0
	var previousChunkSentences []string
	for _, sentence := range sentences {
		// 文の文字数をカウント（Unicodeのルーン数で正確にカウント）
		sentenceChars := utf8.RuneCountInString(sentence)
		if currentChars+sentenceChars > c.MaxChars && len(currentChunk) > 0 {
			finalizeChunk(&currentChunk, &currentChars, &previousChunkSentences, &chunks)
			c.addOverlap(&currentChunk, &currentChars, previousChunkSentences)
		}
		currentChunk = append(currentChunk, sentence)
		currentChars += sentenceChars
	}
	if len(currentChunk) > 0 {
		finalizeChunk(&currentChunk, &currentChars, &previousChunkSentences, &chunks)
	}
	return chunks
}

func finalizeChunk(currentChunk *[]string, currentChars *int, previousChunkSentences *[]string, chunks *[]Chunk) {
	joined := strings.Join(*currentChunk, "\n")
	*chunks = append(*chunks, Chunk{
		Index:     len(*chunks),
		Text:      joined,
		CharCount: utf8.RuneCountInString(joined),
	})
	// 次のオーバーラップ用に現在のチャンクの文を保存
	*previousChunkSentences = make([]string, len(*currentChunk))
	copy(*previousChunkSentences, *currentChunk)
	*currentChunk = []string{}
	*currentChars = 0
}

// addOverlap は前のチャンクから Overlap 分の文字数になるまで、
// 末尾の文を取得して新しいチャンクの先頭に追加します。
// 文単位で追加するため、実際のオーバーラップ文字数は Overlap を超える場合があります。
func (c *Chunker) addOverlap(currentChunk *[]string, currentChars *int, previousChunkSentences []string) {
	if c.Overlap <= 0 || len(previousChunkSentences) == 0 {
		return
	}
	var overlapSentences []string
	overlapChars := 0
	for i := len(previousChunkSentences) - 1; i >= 0; i-- {
		sentence := previousChunkSentences[i]
		sentenceChars := utf8.RuneCountInString(sentence)
		// まだ1文も追加していない場合は、少なくとも1文は追加する
		if overlapChars+sentenceChars > c.Overlap && len(overlapSentences) > 0 {
			break
		}
		overlapSentences = append([]string{sentence}, overlapSentences...)
		overlapChars += sentenceChars
		if overlapChars >= c.Overlap {
			break
		}
	}
	*currentChunk = append(overlapSentences, *currentChunk...)
	*currentChars += overlapChars
}

// SplitSentences は、テキストを文単位に分割します。
// 英語主体のテキストはproseの文分割を使い、それ以外は正規表現で分割します。
func (c *Chunker) SplitSentences(text string) []string {
	if isMostlyASCII(text) {
		doc, err := prose.NewDocument(text)
		if err == nil {
			var sentences []string
			for _, s := range doc.Sentences() {
				t := strings.TrimSpace(s.Text)
				if t != "" {
					sentences = append(sentences, t)
				}
			}
			if len(sentences) > 0 {
				return sentences
			}
		}
		// proseが失敗した場合は正規表現にフォールバック
	}
	return splitSentencesRegexp(text)
}

func splitSentencesRegexp(text string) []string {
	var sentences []string
	lastIndex := 0
	matches := SplitSentencesRegexp.FindAllStringIndex(text, -1)
	for _, match := range matches {
		end := match[1]
		sentence := strings.TrimSpace(text[lastIndex:end])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		lastIndex = end
	}
	if lastIndex < len(text) {
		remaining := strings.TrimSpace(text[lastIndex:])
		if remaining != "" {
			sentences = append(sentences, remaining)
		}
	}
	return sentences
}

// splitLongSentence は、MaxCharsを超える文を単語境界でMaxChars以下の断片に分割します。
// 日本語はKagomeの形態素を、英語主体のテキストは空白区切りを単語境界として使います。
// 1単語がMaxCharsを超える場合、その単語はそのまま1断片とします。
func (c *Chunker) splitLongSentence(sentence string) []string {
	var words []string
	sep := ""
	if isMostlyASCII(sentence) {
		words = strings.Fields(sentence)
		sep = " "
	} else {
		words = c.SplitByWords(sentence)
	}
	if len(words) == 0 {
		return []string{sentence}
	}
	sepChars := utf8.RuneCountInString(sep)
	var pieces []string
	var cur strings.Builder
	curChars := 0
	for _, w := range words {
		wChars := utf8.RuneCountInString(w)
		if curChars > 0 && curChars+sepChars+wChars > c.MaxChars {
			pieces = append(pieces, cur.String())
			cur.Reset()
			curChars = 0
		}
		if curChars > 0 {
			cur.WriteString(sep)
			curChars += sepChars
		}
		cur.WriteString(w)
		curChars += wChars
	}
	if curChars > 0 {
		pieces = append(pieces, cur.String())
	}
	return pieces
}

// SplitByWords は、Kagomeを使用してテキストを単語単位に分割します。
func (c *Chunker) SplitByWords(text string) []string {
	tokens := c.Tokenizer.Tokenize(text)
	var words []string
	for _, token := range tokens {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		words = append(words, token.Surface)
	}
	return words
}

// isMostlyASCII は、テキストの8割以上がASCII文字かどうかを判定します。
func isMostlyASCII(text string) bool {
	if text == "" {
		return true
	}
	total := 0
	ascii := 0
	for _, r := range text {
		total++
		if r < 128 {
			ascii++
		}
	}
	return float64(ascii)/float64(total) >= 0.8
}
