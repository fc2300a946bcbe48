package htmlutil

import "testing"

func TestLooksLikeHTML(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"<p>塔吊倒塌</p>", true},
		{"第一段<br/>第二段", true},
		{"<DIV class=\"x\">a</DIV>", true},
		{"a < b and c > d", false},
		{"纯文本事故经过", false},
	}
	for _, tt := range tests {
		if got := LooksLikeHTML(tt.input); got != tt.want {
			t.Errorf("LooksLikeHTML(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"纯文本", "纯文本"},
		{"<p>施工现场</p><p>塔吊倒塌</p>", "施工现场\n塔吊倒塌"},
		{"第一段<br>第二段", "第一段\n第二段"},
		{"<div>钢筋<script>var x = 1;</script></div>", "钢筋"},
		{"<p>a &amp; b</p>", "a & b"},
		{"<p> </p><p>x</p>", "x"},
	}
	for _, tt := range tests {
		if got := Text(tt.input); got != tt.want {
			t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
